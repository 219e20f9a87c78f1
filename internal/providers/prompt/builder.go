package prompt

import "promptpix/internal/domain"

var styleModifiers = map[domain.Style]string{
	domain.StyleRealistic:    "photorealistic, high quality, detailed",
	domain.StyleArtistic:     "artistic, painterly, creative style",
	domain.StyleCartoon:      "cartoon style, animated, colorful, digital art",
	domain.StyleDigitalArt:   "digital art, concept art, detailed illustration",
	domain.StylePhotographic: "professional photography, sharp focus, DSLR",
}

// BuildEnhancedPrompt appends the modifier clause for style. Unknown or empty
// styles leave the prompt untouched.
func BuildEnhancedPrompt(prompt string, style domain.Style) string {
	if mod, ok := styleModifiers[style]; ok {
		return prompt + ", " + mod
	}
	return prompt
}
