package render

// Drawing is a resolution-independent description of one thumbnail: a
// canvas size plus an ordered display list painted back to front. The first
// element is always the background rectangle.
type Drawing struct {
	Width      int
	Height     int
	Background string
	Elements   []Element

	// IconFallbacks counts nodes drawn as shapes because their icon could
	// not be resolved.
	IconFallbacks int
}

// Kind names an element type.
type Kind string

const (
	KindRect    Kind = "rect"
	KindCircle  Kind = "circle"
	KindPolygon Kind = "polygon"
	KindLine    Kind = "line"
	KindText    Kind = "text"
	KindImage   Kind = "image"
)

// Element is one display list entry.
type Element interface {
	Kind() Kind
}

// Point is a canvas coordinate.
type Point struct {
	X, Y float64
}

// Paint holds fill and stroke settings shared by closed shapes. Empty colors
// are not painted.
type Paint struct {
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// Rect is an axis-aligned rectangle with optional rounded corners.
type Rect struct {
	X, Y, W, H float64
	Radius     float64
	Paint
}

// Circle is a circle given by centre and radius.
type Circle struct {
	CX, CY, R float64
	Paint
}

// Polygon is a closed polygon.
type Polygon struct {
	Points []Point
	Paint
}

// Line is a stroked segment.
type Line struct {
	X1, Y1, X2, Y2 float64
	Stroke         string
	Width          float64
	Opacity        float64
}

// Anchor is the horizontal alignment of text relative to its position.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
	AnchorEnd    Anchor = "end"
)

// Text is a single line of text; Y is the baseline.
type Text struct {
	X, Y    float64
	Content string
	Size    float64
	Fill    string
	Anchor  Anchor
	Bold    bool
	Halo    string // outline color painted under the glyphs, empty for none
}

// Image is an embedded PNG placed at X, Y and drawn at its natural size W x H.
type Image struct {
	X, Y, W, H float64
	PNG        []byte
}

func (Rect) Kind() Kind    { return KindRect }
func (Circle) Kind() Kind  { return KindCircle }
func (Polygon) Kind() Kind { return KindPolygon }
func (Line) Kind() Kind    { return KindLine }
func (Text) Kind() Kind    { return KindText }
func (Image) Kind() Kind   { return KindImage }

func (d *Drawing) add(e Element) {
	d.Elements = append(d.Elements, e)
}
