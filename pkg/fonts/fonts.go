// Package fonts provides the fonts used for node and interface labels.
//
// The Go fonts ship with golang.org/x/image, so labels render the same on
// every machine without a system font lookup.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFamily is the CSS font-family used in serialized SVG drawings.
const FontFamily = "Go, 'DejaVu Sans', Arial, sans-serif"

type lazyFont struct {
	ttf  []byte
	once sync.Once
	font *truetype.Font
	err  error
}

func (l *lazyFont) get() (*truetype.Font, error) {
	l.once.Do(func() {
		l.font, l.err = truetype.Parse(l.ttf)
	})
	return l.font, l.err
}

var (
	regular = &lazyFont{ttf: goregular.TTF}
	bold    = &lazyFont{ttf: gobold.TTF}
)

// Regular returns the parsed Go regular font. The font is parsed once and is
// safe to share between goroutines.
func Regular() (*truetype.Font, error) { return regular.get() }

// Bold returns the parsed Go bold font.
func Bold() (*truetype.Font, error) { return bold.get() }

// Face returns a new font face of the given point size at 72 DPI, so one
// point equals one pixel on the output canvas. Faces keep a glyph cache and
// must not be shared between goroutines.
func Face(size float64, isBold bool) (font.Face, error) {
	f, err := Regular()
	if isBold {
		f, err = Bold()
	}
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}
