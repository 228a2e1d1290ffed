package report

// Point is a page position in percent of page width and height.
type Point struct {
	X, Y float64
}

// Size is a width and height in points.
type Size struct {
	W, H float64
}

// Color is an RGB color.
type Color struct {
	R, G, B int
}

var (
	Black = Color{0, 0, 0}
	Blue  = Color{0, 0, 255}
	Red   = Color{255, 0, 0}
)

// TextStyle controls DrawText.
type TextStyle struct {
	Size  float64
	Color Color
}

// RectStyle controls DrawRect.
type RectStyle struct {
	Color Color
	Width float64
}

// Drawer is the drawing capability a page layout needs.
type Drawer interface {
	DrawText(text string, at Point, style TextStyle)
	DrawImage(path string, at Point, size Size)
	DrawRect(at Point, size Size, style RectStyle)
}
