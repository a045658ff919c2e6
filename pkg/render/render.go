package render

import (
	"bytes"
	"context"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/icons"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

// Style constants shared by every thumbnail.
const (
	outlineColor   = "#333333"
	outlineWidth   = 2.0
	linkColor      = "#333333"
	linkWidth      = 2.0
	linkOpacity    = 0.6
	portLabelColor = "#666666"
	nodeLabelColor = "#333333"
	minPortLabel   = 6.0
)

// Render lays out a topology on the configured canvas and returns its
// drawing. It is deterministic for identical inputs, including icon pixels.
// Project drawings are fitted together with the nodes and painted between
// links and nodes.
//
// Icons are used only when cfg.UseIcons is set and resolver is non-nil; a
// node whose icon cannot be resolved is drawn as a shape and counted in
// Drawing.IconFallbacks. Render fails only on an invalid cfg (INVALID_CONFIG)
// or when ctx ends: CANCELLED when cancelled, FETCH_ERROR when its deadline
// passes.
func Render(ctx context.Context, topo *topology.Topology, resolver icons.Resolver, cfg Config) (*Drawing, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, snaperrors.FromContext(err, "render")
	}

	d := &Drawing{Width: cfg.Width, Height: cfg.Height, Background: cfg.Background}
	d.add(Rect{W: float64(cfg.Width), H: float64(cfg.Height), Paint: Paint{Fill: cfg.Background}})

	var notes []annotation
	if topo != nil {
		notes = prepareAnnotations(topo.Drawings)
	}
	bounds, ok := contentBounds(topo, notes)
	if !ok {
		return d, nil
	}
	tr := fit(bounds, cfg)
	ns := float64(cfg.NodeSize)

	// Resolve icons up front so link clipping knows which nodes are icons.
	nodeIcons, err := resolveIcons(ctx, topo, resolver, cfg, d)
	if err != nil {
		return nil, err
	}

	centres := make([]Point, len(topo.Nodes))
	for i, n := range topo.Nodes {
		centres[i] = tr.apply(n.X, n.Y)
	}
	index := topo.NodeIndex()

	var portLabels []Element
	for _, l := range topo.Links {
		ia, okA := index[l.A.NodeID]
		ib, okB := index[l.B.NodeID]
		if !okA || !okB {
			continue
		}
		a, b := centres[ia], centres[ib]
		dx, dy := b.X-a.X, b.Y-a.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length
		na, nb := topo.Nodes[ia], topo.Nodes[ib]
		clipA := clipDistance(NodeShape(na.Kind), nodeIcons[ia] != nil, ns, ux, uy)
		clipB := clipDistance(NodeShape(nb.Kind), nodeIcons[ib] != nil, ns, ux, uy)
		if length <= clipA+clipB {
			continue
		}

		d.add(Line{
			X1: a.X + ux*clipA, Y1: a.Y + uy*clipA,
			X2: b.X - ux*clipB, Y2: b.Y - uy*clipB,
			Stroke: linkColor, Width: linkWidth, Opacity: linkOpacity,
		})

		if !cfg.ShowInterfaceLabels || (l.A.Label == "" && l.B.Label == "") {
			continue
		}
		size := math.Max(minPortLabel, float64(cfg.FontSize-2))
		ta, tb := placePortLabels(a, b, ux, uy, clipA, clipB, size, l.A.Label, l.B.Label)
		for _, t := range []Text{ta, tb} {
			if t.Content == "" {
				continue
			}
			t.Fill, t.Halo = portLabelColor, cfg.Background
			portLabels = append(portLabels, t)
		}
	}

	drawAnnotations(d, notes, tr, cfg)

	for i, n := range topo.Nodes {
		c := centres[i]
		if img := nodeIcons[i]; img != nil {
			d.add(Image{X: c.X - img.w/2, Y: c.Y - img.h/2, W: img.w, H: img.h, PNG: img.png})
		} else {
			paint := Paint{Fill: NodeColor(n.Kind), Stroke: outlineColor, StrokeWidth: outlineWidth}
			d.add(shapeElement(NodeShape(n.Kind), c, ns, paint))
		}
		if n.Label != "" {
			d.add(Text{
				X:       c.X,
				Y:       c.Y + ns/2 + float64(cfg.FontSize) + 3,
				Content: n.Label,
				Size:    float64(cfg.FontSize),
				Fill:    nodeLabelColor,
				Anchor:  AnchorMiddle,
				Bold:    true,
			})
		}
	}

	d.Elements = append(d.Elements, portLabels...)
	return d, nil
}

type fittedIcon struct {
	png  []byte
	w, h float64
}

// resolveIcons returns one entry per node; nil means draw a shape. Each
// symbol is resolved, fitted and encoded once per drawing.
func resolveIcons(ctx context.Context, topo *topology.Topology, resolver icons.Resolver, cfg Config, d *Drawing) ([]*fittedIcon, error) {
	out := make([]*fittedIcon, len(topo.Nodes))
	if !cfg.UseIcons || resolver == nil {
		return out, nil
	}

	bySymbol := make(map[string]*fittedIcon)
	for i, n := range topo.Nodes {
		if n.Symbol == "" {
			d.IconFallbacks++
			continue
		}
		if fi, seen := bySymbol[n.Symbol]; seen {
			out[i] = fi
			if fi == nil {
				d.IconFallbacks++
			}
			continue
		}

		asset, err := resolver.Resolve(ctx, n.Symbol)
		if ctx.Err() != nil {
			return nil, snaperrors.FromContext(ctx.Err(), "resolve icon %q", n.Symbol)
		}
		var fi *fittedIcon
		if err == nil {
			fi = fitIcon(asset, cfg.NodeSize)
		}
		bySymbol[n.Symbol] = fi
		out[i] = fi
		if fi == nil {
			d.IconFallbacks++
		}
	}
	return out, nil
}

// fitIcon scales an icon to fit a node square, keeping its aspect ratio.
func fitIcon(asset *icons.Asset, nodeSize int) *fittedIcon {
	if asset == nil || asset.Image == nil {
		return nil
	}
	img := imaging.Fit(asset.Image, nodeSize, nodeSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	b := img.Bounds()
	return &fittedIcon{png: buf.Bytes(), w: float64(b.Dx()), h: float64(b.Dy())}
}
