package render

import "strings"

type ShapeKind string

const (
	ShapeCircle   ShapeKind = "circle"
	ShapeTriangle ShapeKind = "triangle"
	ShapeStar     ShapeKind = "star"
)

// Point is a canvas coordinate in pixels.
type Point struct {
	X, Y float64
}

// Shape is one overlay element. Circles and stars use Center and Radius,
// triangles use Vertices.
type Shape struct {
	Kind     ShapeKind
	Center   Point
	Radius   float64
	Vertices []Point
	Alpha    float64
}

const starRadius = 2

var (
	circleKeywords   = []string{"circle", "sun", "moon"}
	triangleKeywords = []string{"triangle", "mountain", "pyramid"}
	starKeywords     = []string{"star", "space"}
)

// Layout plans the keyword-driven overlays for prompt on a width x height
// canvas. It is deterministic in (prompt, width, height, hash).
func Layout(prompt string, width, height int, hash int64) []Shape {
	lower := strings.ToLower(prompt)
	w, h := float64(width), float64(height)
	var shapes []Shape

	if containsAny(lower, circleKeywords) {
		shapes = append(shapes, Shape{
			Kind:   ShapeCircle,
			Center: Point{X: w * 0.7, Y: h * 0.3},
			Radius: min(w, h) * 0.1,
			Alpha:  0.3,
		})
	}

	if containsAny(lower, triangleKeywords) {
		shapes = append(shapes, Shape{
			Kind: ShapeTriangle,
			Vertices: []Point{
				{X: w * 0.2, Y: h * 0.8},
				{X: w * 0.4, Y: h * 0.4},
				{X: w * 0.6, Y: h * 0.8},
			},
			Alpha: 0.2,
		})
	}

	if containsAny(lower, starKeywords) && width > 0 && height > 0 {
		count := 5 + int(hash%10)
		for i := 0; i < count; i++ {
			x := (hash * int64(i+1)) % int64(width)
			y := (hash * int64(i+2)) % int64(height)
			shapes = append(shapes, Shape{
				Kind:   ShapeStar,
				Center: Point{X: float64(x), Y: float64(y)},
				Radius: starRadius,
				Alpha:  0.6,
			})
		}
	}
	return shapes
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
