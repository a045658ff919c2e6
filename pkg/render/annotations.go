package render

import (
	"bytes"
	"encoding/xml"
	"image/png"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/icons"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

// Annotations are the project drawings (notes, rectangles, ellipses) GNS3
// keeps next to the nodes. Their SVG shapes go through the icon rasterizer;
// text is pulled out separately because the rasterizer does not draw it.

const (
	// defaultAnnotationSize is the edge length assumed for a drawing whose
	// SVG declares no size.
	defaultAnnotationSize = 100

	defaultNoteFontSize = 10
	defaultNoteColor    = "#000000"
	noteLineHeight      = 1.2
)

type annotation struct {
	x, y  float64
	w, h  float64
	z     int
	doc   *icons.SVGDoc
	notes []noteText
}

// noteText is one <text> element of a drawing, in drawing coordinates.
type noteText struct {
	x, y    float64
	size    float64
	fill    string
	bold    bool
	content string
}

// prepareAnnotations parses every drawing once and orders them by z.
// Drawings whose SVG cannot be parsed are skipped.
func prepareAnnotations(drawings []topology.Drawing) []annotation {
	out := make([]annotation, 0, len(drawings))
	for _, dr := range drawings {
		data := []byte(dr.SVG)
		doc, err := icons.ParseSVG(data)
		if err != nil {
			continue
		}
		w, h, ok := doc.Size()
		if !ok {
			w, h = defaultAnnotationSize, defaultAnnotationSize
		}
		out = append(out, annotation{
			x: dr.X, y: dr.Y, w: w, h: h, z: dr.Z,
			doc:   doc,
			notes: noteTexts(data),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].z < out[j].z })
	return out
}

// annotationBounds returns the box covering every annotation.
func annotationBounds(as []annotation) (topology.Bounds, bool) {
	if len(as) == 0 {
		return topology.Bounds{}, false
	}
	b := topology.Bounds{MinX: as[0].x, MinY: as[0].y, MaxX: as[0].x + as[0].w, MaxY: as[0].y + as[0].h}
	for _, a := range as[1:] {
		b = b.Union(topology.Bounds{MinX: a.x, MinY: a.y, MaxX: a.x + a.w, MaxY: a.y + a.h})
	}
	return b, true
}

// contentBounds combines node centres and annotation boxes.
func contentBounds(topo *topology.Topology, as []annotation) (topology.Bounds, bool) {
	nb, nodes := topo.NodeBounds()
	ab, notes := annotationBounds(as)
	switch {
	case nodes && notes:
		return nb.Union(ab), true
	case nodes:
		return nb, true
	case notes:
		return ab, true
	}
	return topology.Bounds{}, false
}

// drawAnnotations appends the annotations to d through tr.
func drawAnnotations(d *Drawing, as []annotation, tr transform, cfg Config) {
	for _, a := range as {
		p := tr.apply(a.x, a.y)
		if !a.doc.Empty() {
			pw := pixels(a.w*tr.scale, cfg.Width)
			ph := pixels(a.h*tr.scale, cfg.Height)
			if img, err := a.doc.Rasterize(pw, ph); err == nil {
				var buf bytes.Buffer
				if err := png.Encode(&buf, img); err == nil {
					d.add(Image{X: p.X, Y: p.Y, W: float64(pw), H: float64(ph), PNG: buf.Bytes()})
				}
			}
		}

		for _, n := range a.notes {
			size := math.Max(minPortLabel, n.size*tr.scale)
			for i, line := range strings.Split(n.content, "\n") {
				line = strings.TrimRight(line, " \t\r")
				if line == "" {
					continue
				}
				d.add(Text{
					X:       p.X + n.x*tr.scale,
					Y:       p.Y + n.y*tr.scale + float64(i)*size*noteLineHeight,
					Content: line,
					Size:    size,
					Fill:    n.fill,
					Anchor:  AnchorStart,
					Bold:    n.bold,
				})
			}
		}
	}
}

// pixels rounds a scaled length to a raster size of at least one pixel and at
// most twice the canvas edge.
func pixels(v float64, edge int) int {
	return max(1, min(int(math.Round(v)), 2*edge))
}

// noteTexts extracts the <text> elements of a drawing. Nested tspans are
// flattened into their parent. A text without y sits one font size below
// the drawing's top, where GNS3 draws it.
func noteTexts(data []byte) []noteText {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out     []noteText
		cur     *noteText
		content strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "text" && cur == nil {
				cur = newNoteText(t.Attr)
				content.Reset()
			}
		case xml.CharData:
			if cur != nil {
				content.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "text" && cur != nil {
				cur.content = strings.TrimSpace(content.String())
				if cur.content != "" {
					out = append(out, *cur)
				}
				cur = nil
			}
		}
	}
}

func newNoteText(attrs []xml.Attr) *noteText {
	n := &noteText{size: defaultNoteFontSize, fill: defaultNoteColor}
	var hasY bool
	for _, a := range attrs {
		v := strings.TrimSpace(a.Value)
		switch a.Name.Local {
		case "x":
			n.x = parseLength(v, 0)
		case "y":
			n.y, hasY = parseLength(v, 0), true
		case "font-size":
			if f := parseLength(v, 0); f > 0 {
				n.size = f
			}
		case "fill":
			if _, err := ParseColor(v); err == nil {
				n.fill = v
			}
		case "font-weight":
			n.bold = v == "bold" || v == "bolder" || parseLength(v, 0) >= 600
		}
	}
	if !hasY {
		n.y = n.size
	}
	return n
}

// parseLength reads a number with an optional "px" or "pt" suffix.
func parseLength(s string, fallback float64) float64 {
	s = strings.TrimSuffix(strings.TrimSuffix(s, "px"), "pt")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}
