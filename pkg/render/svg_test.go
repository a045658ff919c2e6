package render

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestNum(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.001, "0"},
		{1.5, "1.5"},
		{1.005001, "1.01"},
		{100, "100"},
		{-3.14159, "-3.14"},
	}
	for _, tt := range tests {
		if got := num(tt.in); got != tt.want {
			t.Errorf("num(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDrawingSVG(t *testing.T) {
	d := &Drawing{Width: 200, Height: 100, Background: "white"}
	d.add(Rect{W: 200, H: 100, Paint: Paint{Fill: "white"}})
	d.add(Line{X1: 10, Y1: 10, X2: 190, Y2: 90, Stroke: "#333333", Width: 2, Opacity: 0.6})
	d.add(Circle{CX: 50, CY: 50, R: 20, Paint: Paint{Fill: "#4A90E2", Stroke: "#333333", StrokeWidth: 2}})
	d.add(Polygon{Points: []Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 0}}, Paint: Paint{Fill: "red"}})
	d.add(Text{X: 50, Y: 80, Content: "R1 <edge> & co", Size: 12, Fill: "#333333", Anchor: AnchorMiddle, Bold: true})
	d.add(Text{X: 5, Y: 5, Content: "e0", Size: 10, Fill: "#666666", Anchor: AnchorStart, Halo: "white"})
	d.add(Image{X: 1, Y: 2, W: 3, H: 4, PNG: []byte("png")})

	svg := string(d.SVG())
	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100" viewBox="0 0 200 100">`,
		`<rect x="0" y="0" width="200" height="100" fill="white"/>`,
		`<line x1="10" y1="10" x2="190" y2="90" stroke="#333333" stroke-width="2" stroke-opacity="0.6"/>`,
		`<circle cx="50" cy="50" r="20" fill="#4A90E2" stroke="#333333" stroke-width="2"/>`,
		`<polygon points="1,2 3,4 5,0" fill="red"/>`,
		`font-weight="bold">R1 &lt;edge&gt; &amp; co</text>`,
		`stroke="white" stroke-width="3" paint-order="stroke">e0</text>`,
		`href="data:image/png;base64,` + base64.StdEncoding.EncodeToString([]byte("png")) + `"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("SVG missing %q\n%s", want, svg)
		}
	}
	if !strings.HasSuffix(svg, "</svg>\n") {
		t.Error("SVG not terminated")
	}
}

func TestDrawingSVGRoundedRect(t *testing.T) {
	d := &Drawing{Width: 10, Height: 10}
	d.add(Rect{X: 1, Y: 1, W: 8, H: 8, Radius: 5})
	if !strings.Contains(string(d.SVG()), `rx="5" fill="none"`) {
		t.Errorf("rounded rect not serialized: %s", d.SVG())
	}
}
