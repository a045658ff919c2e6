// Package raster paints a [render.Drawing] into a PNG bitmap.
//
// Painting uses fogleman/gg with the Go fonts, so output depends only on the
// drawing and not on fonts installed on the host.
package raster

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"math"

	"github.com/fogleman/gg"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/fonts"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
)

// haloWidth is the outline thickness painted under haloed text.
const haloWidth = 1.5

// Rasterize paints d onto a width x height canvas and returns it as PNG.
// The drawing is not scaled: width and height must match the drawing's
// canvas. Malformed drawings fail with RENDER_ERROR.
func Rasterize(d *render.Drawing, width, height int) ([]byte, error) {
	if d == nil {
		return nil, snaperrors.New(snaperrors.ErrCodeRender, "nil drawing")
	}
	if width <= 0 || height <= 0 {
		return nil, snaperrors.New(snaperrors.ErrCodeRender, "invalid bitmap size %dx%d", width, height)
	}
	if d.Width != width || d.Height != height {
		return nil, snaperrors.New(snaperrors.ErrCodeRender,
			"drawing is %dx%d, bitmap requested at %dx%d", d.Width, d.Height, width, height)
	}

	p := &painter{dc: gg.NewContext(width, height)}
	for i, e := range d.Elements {
		if err := p.paint(e); err != nil {
			return nil, snaperrors.Wrap(snaperrors.ErrCodeRender, err, "element %d (%T)", i, e)
		}
	}

	var buf bytes.Buffer
	if err := p.dc.EncodePNG(&buf); err != nil {
		return nil, snaperrors.Wrap(snaperrors.ErrCodeRender, err, "encode png")
	}
	return buf.Bytes(), nil
}

type painter struct {
	dc *gg.Context
}

func (p *painter) paint(e render.Element) error {
	switch e := e.(type) {
	case render.Rect:
		if err := finite(e.X, e.Y, e.W, e.H, e.Radius); err != nil {
			return err
		}
		if e.W < 0 || e.H < 0 || e.Radius < 0 {
			return fmt.Errorf("negative rect size %vx%v r=%v", e.W, e.H, e.Radius)
		}
		if e.Radius > 0 {
			p.dc.DrawRoundedRectangle(e.X, e.Y, e.W, e.H, e.Radius)
		} else {
			p.dc.DrawRectangle(e.X, e.Y, e.W, e.H)
		}
		return p.fillStroke(e.Paint)

	case render.Circle:
		if err := finite(e.CX, e.CY, e.R); err != nil {
			return err
		}
		if e.R < 0 {
			return fmt.Errorf("negative radius %v", e.R)
		}
		p.dc.DrawCircle(e.CX, e.CY, e.R)
		return p.fillStroke(e.Paint)

	case render.Polygon:
		if len(e.Points) < 3 {
			return fmt.Errorf("polygon needs 3 points, got %d", len(e.Points))
		}
		for i, pt := range e.Points {
			if err := finite(pt.X, pt.Y); err != nil {
				return err
			}
			if i == 0 {
				p.dc.MoveTo(pt.X, pt.Y)
			} else {
				p.dc.LineTo(pt.X, pt.Y)
			}
		}
		p.dc.ClosePath()
		return p.fillStroke(e.Paint)

	case render.Line:
		if err := finite(e.X1, e.Y1, e.X2, e.Y2, e.Width, e.Opacity); err != nil {
			return err
		}
		if e.Width < 0 {
			return fmt.Errorf("negative line width %v", e.Width)
		}
		c, err := parse(e.Stroke)
		if err != nil {
			return err
		}
		if e.Opacity > 0 && e.Opacity < 1 {
			c.A = uint8(math.Round(float64(c.A) * e.Opacity))
		}
		p.dc.SetColor(c)
		p.dc.SetLineWidth(e.Width)
		p.dc.DrawLine(e.X1, e.Y1, e.X2, e.Y2)
		p.dc.Stroke()
		return nil

	case render.Text:
		return p.text(e)

	case render.Image:
		if err := finite(e.X, e.Y, e.W, e.H); err != nil {
			return err
		}
		if e.W < 0 || e.H < 0 {
			return fmt.Errorf("negative image size %vx%v", e.W, e.H)
		}
		img, err := png.Decode(bytes.NewReader(e.PNG))
		if err != nil {
			return fmt.Errorf("decode embedded image: %w", err)
		}
		p.dc.DrawImage(img, int(math.Round(e.X)), int(math.Round(e.Y)))
		return nil

	default:
		return fmt.Errorf("unknown element kind %T", e)
	}
}

func (p *painter) text(t render.Text) error {
	if err := finite(t.X, t.Y, t.Size); err != nil {
		return err
	}
	if t.Size <= 0 {
		return fmt.Errorf("non-positive font size %v", t.Size)
	}
	if t.Content == "" {
		return nil
	}
	face, err := fonts.Face(t.Size, t.Bold)
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	defer face.Close()
	p.dc.SetFontFace(face)

	var ax float64
	switch t.Anchor {
	case render.AnchorMiddle:
		ax = 0.5
	case render.AnchorEnd:
		ax = 1
	}

	if t.Halo != "" {
		halo, err := parse(t.Halo)
		if err != nil {
			return err
		}
		if halo.A > 0 {
			p.dc.SetColor(halo)
			for _, d := range [][2]float64{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
				p.dc.DrawStringAnchored(t.Content, t.X+d[0]*haloWidth, t.Y+d[1]*haloWidth, ax, 0)
			}
		}
	}

	fill, err := parse(t.Fill)
	if err != nil {
		return err
	}
	p.dc.SetColor(fill)
	p.dc.DrawStringAnchored(t.Content, t.X, t.Y, ax, 0)
	return nil
}

// fillStroke fills then strokes the current path. Empty or "none" colors
// are skipped; the path is cleared either way.
func (p *painter) fillStroke(paint render.Paint) error {
	defer p.dc.ClearPath()

	if paint.Fill != "" && paint.Fill != "none" {
		c, err := parse(paint.Fill)
		if err != nil {
			return err
		}
		p.dc.SetColor(c)
		p.dc.FillPreserve()
	}
	if paint.Stroke != "" && paint.Stroke != "none" && paint.StrokeWidth > 0 {
		if err := finite(paint.StrokeWidth); err != nil {
			return err
		}
		c, err := parse(paint.Stroke)
		if err != nil {
			return err
		}
		p.dc.SetColor(c)
		p.dc.SetLineWidth(paint.StrokeWidth)
		p.dc.StrokePreserve()
	}
	return nil
}

func parse(s string) (color.NRGBA, error) {
	return render.ParseColor(s)
}

func finite(vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coordinate %v", v)
		}
	}
	return nil
}
