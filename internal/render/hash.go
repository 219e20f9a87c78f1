package render

import "unicode/utf16"

// Hash folds text into a non-negative value via hash = hash*31 + code unit,
// wrapped to a signed 32-bit integer. Code units are UTF-16 so the value
// matches what browsers compute for the same prompt.
func Hash(text string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(text)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Palette is the HSL seed derived from a prompt hash. Saturation and
// lightness are percentages.
type Palette struct {
	Hue        int `json:"hue"`
	Saturation int `json:"saturation"`
	Lightness  int `json:"lightness"`
}

// PaletteFor derives the palette for hash.
func PaletteFor(hash int64) Palette {
	return Palette{
		Hue:        int(hash % 360),
		Saturation: 50 + int(hash%30),
		Lightness:  40 + int(hash%20),
	}
}
