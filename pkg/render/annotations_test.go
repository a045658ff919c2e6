package render

import (
	"context"
	"math"
	"testing"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

const blueBox = `<svg width="100" height="50"><rect width="100" height="50" fill="#0000ff"/></svg>`

func TestRenderDrawingsJoinTheFit(t *testing.T) {
	topo := twoRouters()
	topo.Drawings = []topology.Drawing{{ID: "d1", X: -100, Y: -100, SVG: blueBox}}

	d, err := Render(context.Background(), topo, nil, NewConfig(WithSize(400, 300)))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var kinds []Kind
	for _, e := range d.Elements {
		kinds = append(kinds, e.Kind())
	}
	want := []Kind{KindRect, KindLine, KindImage, KindCircle, KindText, KindCircle, KindText, KindText, KindText}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}

	// Content spans [-100,100]x[-100,0], so the scale is 1.3.
	img := d.Elements[2].(Image)
	if math.Abs(img.X-70) > eps || math.Abs(img.Y-85) > eps || img.W != 130 || img.H != 65 {
		t.Errorf("drawing placed at %v,%v size %vx%v; want 70,85 size 130x65", img.X, img.Y, img.W, img.H)
	}
	px, err := decodePNG(img.PNG)
	if err != nil {
		t.Fatalf("decode drawing: %v", err)
	}
	if px.Bounds().Dx() != 130 || px.Bounds().Dy() != 65 {
		t.Errorf("drawing raster = %v, want 130x65", px.Bounds())
	}
	_, _, b, a := px.At(65, 32).RGBA()
	if a != 0xffff || b < 0xf000 {
		t.Errorf("drawing centre is not opaque blue: b=%x a=%x", b, a)
	}

	router := d.Elements[3].(Circle)
	if math.Abs(router.CX-200) > eps || math.Abs(router.CY-215) > eps {
		t.Errorf("router centre = (%v, %v), want (200, 215)", router.CX, router.CY)
	}
}

func TestRenderDrawingsOnly(t *testing.T) {
	topo := &topology.Topology{Drawings: []topology.Drawing{{
		ID:  "note",
		SVG: "<svg width=\"80\" height=\"20\"><text font-size=\"10\" fill=\"#ff0000\" font-weight=\"bold\">Core\nsite</text></svg>",
	}}}

	d, err := Render(context.Background(), topo, nil, NewConfig(WithSize(400, 300)))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(d.Elements) != 3 {
		t.Fatalf("len(Elements) = %d, want background and two text lines", len(d.Elements))
	}

	// 80x20 on a 260x160 area scales by 3.25.
	first, second := d.Elements[1].(Text), d.Elements[2].(Text)
	if first.Content != "Core" || second.Content != "site" {
		t.Errorf("lines = %q, %q", first.Content, second.Content)
	}
	if math.Abs(first.X-70) > eps || math.Abs(first.Y-150) > eps || math.Abs(first.Size-32.5) > eps {
		t.Errorf("first line = %+v, want x 70 baseline 150 size 32.5", first)
	}
	if math.Abs(second.Y-189) > eps {
		t.Errorf("second baseline = %v, want 189", second.Y)
	}
	if first.Fill != "#ff0000" || !first.Bold || first.Anchor != AnchorStart {
		t.Errorf("style = %+v", first)
	}
}

func TestPrepareAnnotations(t *testing.T) {
	as := prepareAnnotations([]topology.Drawing{
		{ID: "top", X: 5, Z: 2, SVG: blueBox},
		{ID: "broken", Z: 0, SVG: "<svg><rect"},
		{ID: "unsized", X: 1, Z: 1, SVG: `<svg><ellipse cx="5" cy="5" rx="5" ry="5"/></svg>`},
	})
	if len(as) != 2 {
		t.Fatalf("len = %d, want 2 (unparseable drawing skipped)", len(as))
	}
	if as[0].x != 1 || as[1].x != 5 {
		t.Errorf("order = %v, %v; want z order", as[0].x, as[1].x)
	}
	if as[0].w != defaultAnnotationSize || as[0].h != defaultAnnotationSize {
		t.Errorf("unsized drawing = %vx%v, want %v square", as[0].w, as[0].h, defaultAnnotationSize)
	}
	if as[1].w != 100 || as[1].h != 50 {
		t.Errorf("sized drawing = %vx%v, want 100x50", as[1].w, as[1].h)
	}

	b, ok := annotationBounds(as)
	want := topology.Bounds{MinX: 1, MinY: 0, MaxX: 105, MaxY: 100}
	if !ok || b != want {
		t.Errorf("annotationBounds() = %+v, %v; want %+v", b, ok, want)
	}
}

func TestNoteTexts(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want []noteText
	}{
		{
			name: "gns3 note",
			svg:  `<svg height="24" width="80"><text fill="#000000" fill-opacity="1.0" font-family="TypeWriter" font-size="10.0" font-weight="bold">Lab A</text></svg>`,
			want: []noteText{{y: 10, size: 10, fill: "#000000", bold: true, content: "Lab A"}},
		},
		{
			name: "positioned with tspan",
			svg:  `<svg width="50" height="50"><text x="4" y="20px" font-size="12"><tspan>DMZ</tspan> zone</text></svg>`,
			want: []noteText{{x: 4, y: 20, size: 12, fill: defaultNoteColor, content: "DMZ zone"}},
		},
		{
			name: "bad color and empty text",
			svg:  `<svg><text fill="sparkly">x</text><text> </text></svg>`,
			want: []noteText{{y: defaultNoteFontSize, size: defaultNoteFontSize, fill: defaultNoteColor, content: "x"}},
		},
		{
			name: "no text",
			svg:  blueBox,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := noteTexts([]byte(tt.svg))
			if len(got) != len(tt.want) {
				t.Fatalf("noteTexts() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("noteTexts()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
