package render

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/fonts"
)

// SVG serializes the drawing. Output is byte-identical for identical
// drawings: coordinates are rounded to two decimals and images are embedded
// as base64 data URIs.
func (d *Drawing) SVG() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		d.Width, d.Height, d.Width, d.Height)

	for _, e := range d.Elements {
		switch e := e.(type) {
		case Rect:
			fmt.Fprintf(&buf, `  <rect x="%s" y="%s" width="%s" height="%s"`, num(e.X), num(e.Y), num(e.W), num(e.H))
			if e.Radius > 0 {
				fmt.Fprintf(&buf, ` rx="%s"`, num(e.Radius))
			}
			writePaint(&buf, e.Paint)
			buf.WriteString("/>\n")
		case Circle:
			fmt.Fprintf(&buf, `  <circle cx="%s" cy="%s" r="%s"`, num(e.CX), num(e.CY), num(e.R))
			writePaint(&buf, e.Paint)
			buf.WriteString("/>\n")
		case Polygon:
			pts := make([]string, len(e.Points))
			for i, p := range e.Points {
				pts[i] = num(p.X) + "," + num(p.Y)
			}
			fmt.Fprintf(&buf, `  <polygon points="%s"`, strings.Join(pts, " "))
			writePaint(&buf, e.Paint)
			buf.WriteString("/>\n")
		case Line:
			fmt.Fprintf(&buf, `  <line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"`,
				num(e.X1), num(e.Y1), num(e.X2), num(e.Y2), attr(e.Stroke), num(e.Width))
			if e.Opacity > 0 && e.Opacity < 1 {
				fmt.Fprintf(&buf, ` stroke-opacity="%s"`, num(e.Opacity))
			}
			buf.WriteString("/>\n")
		case Text:
			fmt.Fprintf(&buf, `  <text x="%s" y="%s" font-family="%s" font-size="%s" fill="%s" text-anchor="%s"`,
				num(e.X), num(e.Y), attr(fonts.FontFamily), num(e.Size), attr(e.Fill), e.Anchor)
			if e.Bold {
				buf.WriteString(` font-weight="bold"`)
			}
			if e.Halo != "" {
				fmt.Fprintf(&buf, ` stroke="%s" stroke-width="3" paint-order="stroke"`, attr(e.Halo))
			}
			buf.WriteString(">")
			xml.EscapeText(&buf, []byte(e.Content))
			buf.WriteString("</text>\n")
		case Image:
			fmt.Fprintf(&buf, `  <image x="%s" y="%s" width="%s" height="%s" href="data:image/png;base64,%s"/>`+"\n",
				num(e.X), num(e.Y), num(e.W), num(e.H), base64.StdEncoding.EncodeToString(e.PNG))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func writePaint(buf *bytes.Buffer, p Paint) {
	fill := p.Fill
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(buf, ` fill="%s"`, attr(fill))
	if p.Stroke != "" && p.StrokeWidth > 0 {
		fmt.Fprintf(buf, ` stroke="%s" stroke-width="%s"`, attr(p.Stroke), num(p.StrokeWidth))
	}
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func attr(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
