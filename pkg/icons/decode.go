package icons

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MinPayload is the smallest symbol body accepted as a real icon. Servers
// and mirrors answer missing symbols with tiny placeholders or error text.
const MinPayload = 100

// Resolution is the edge length, in pixels, SVG symbols are rasterized at.
// The renderer scales icons down to the node size from there.
const Resolution = 128

// IsSVG reports whether data looks like an SVG document.
func IsSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimSpace(head)
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<")) && bytes.Contains(head, []byte("<svg")))
}

// Decode turns a symbol payload into an image. SVG documents are rasterized
// to fit a size x size square, keeping their aspect ratio; bitmaps are
// decoded as-is.
func Decode(data []byte, size int) (image.Image, error) {
	if len(data) < MinPayload {
		return nil, fmt.Errorf("payload too small (%d bytes)", len(data))
	}
	if IsSVG(data) {
		return rasterizeSVG(data, size)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode bitmap: %w", err)
	}
	return img, nil
}

func rasterizeSVG(data []byte, size int) (image.Image, error) {
	icon, err := parseSVG(data)
	if err != nil {
		return nil, err
	}

	w, h := size, size
	if vb := icon.ViewBox; vb.W > 0 && vb.H > 0 {
		if vb.W >= vb.H {
			h = max(1, int(float64(size)*vb.H/vb.W+0.5))
		} else {
			w = max(1, int(float64(size)*vb.W/vb.H+0.5))
		}
	}
	return drawSVG(icon, w, h)
}

// SVGDoc is a parsed SVG document, for callers that place SVG content
// themselves rather than as a node icon.
type SVGDoc struct {
	icon *oksvg.SvgIcon
}

// ParseSVG parses an SVG document.
func ParseSVG(data []byte) (*SVGDoc, error) {
	icon, err := parseSVG(data)
	if err != nil {
		return nil, err
	}
	return &SVGDoc{icon: icon}, nil
}

// Size returns the document's viewBox size, or its width and height when
// there is no viewBox. ok is false when it declares neither.
func (d *SVGDoc) Size() (w, h float64, ok bool) {
	vb := d.icon.ViewBox
	return vb.W, vb.H, vb.W > 0 && vb.H > 0
}

// Empty reports whether the document has no shapes to draw.
func (d *SVGDoc) Empty() bool {
	return len(d.icon.SVGPaths) == 0
}

// Rasterize draws the document stretched to exactly w x h pixels.
func (d *SVGDoc) Rasterize(w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("rasterize svg: invalid size %dx%d", w, h)
	}
	return drawSVG(d.icon, w, h)
}

// parseSVG ignores elements oksvg cannot draw, such as text.
func parseSVG(data []byte) (icon *oksvg.SvgIcon, err error) {
	// oksvg panics on some malformed path data.
	defer func() {
		if r := recover(); r != nil {
			icon, err = nil, fmt.Errorf("parse svg: %v", r)
		}
	}()
	icon, err = oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	return icon, nil
}

func drawSVG(icon *oksvg.SvgIcon, w, h int) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("rasterize svg: %v", r)
		}
	}()
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.Transparent, image.Point{}, draw.Src)
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1)
	return rgba, nil
}
