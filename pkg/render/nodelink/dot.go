package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

// pointsPerInch converts canvas pixels to Graphviz node sizes, which are
// given in inches.
const pointsPerInch = 72.0

// Options configures DOT export.
type Options struct {
	// NodeSize is the node width and height in points. Zero uses
	// render.DefaultNodeSize.
	NodeSize int

	// PortLabels adds interface names as tail and head labels.
	PortLabels bool
}

// ToDOT converts a topology to an undirected Graphviz graph. Every node is
// pinned at its GNS3 position (y flipped, since Graphviz grows upwards) so
// the neato engine reproduces the project layout instead of computing one.
// Shapes and fill colors match the thumbnail.
func ToDOT(topo *topology.Topology, opts Options) string {
	ns := opts.NodeSize
	if ns <= 0 {
		ns = render.DefaultNodeSize
	}
	size := float64(ns) / pointsPerInch

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	if topo != nil && topo.Name != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", topo.Name)
	}
	fmt.Fprintf(&buf, "  node [style=filled, fixedsize=true, width=%.3f, height=%.3f, fontsize=10, color=\"#333333\"];\n", size, size)
	buf.WriteString("  edge [color=\"#333333\"];\n")
	buf.WriteString("\n")

	if topo.Empty() {
		buf.WriteString("}\n")
		return buf.String()
	}

	for _, n := range topo.Nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", n.Label),
			fmt.Sprintf("shape=%s", dotShape(render.NodeShape(n.Kind))),
			fmt.Sprintf("fillcolor=%q", render.NodeColor(n.Kind)),
			fmt.Sprintf("pos=\"%s,%s!\"", coord(n.X), coord(-n.Y)),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	index := topo.NodeIndex()
	for _, l := range topo.Links {
		if _, ok := index[l.A.NodeID]; !ok {
			continue
		}
		if _, ok := index[l.B.NodeID]; !ok {
			continue
		}
		var attrs []string
		if opts.PortLabels {
			if l.A.Label != "" {
				attrs = append(attrs, fmt.Sprintf("taillabel=%q", l.A.Label))
			}
			if l.B.Label != "" {
				attrs = append(attrs, fmt.Sprintf("headlabel=%q", l.B.Label))
			}
		}
		if len(attrs) > 0 {
			fmt.Fprintf(&buf, "  %q -- %q [%s];\n", l.A.NodeID, l.B.NodeID, strings.Join(attrs, ", "))
		} else {
			fmt.Fprintf(&buf, "  %q -- %q;\n", l.A.NodeID, l.B.NodeID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotShape(s render.Shape) string {
	switch s {
	case render.ShapeCircle:
		return "circle"
	case render.ShapeHexagon:
		return "hexagon"
	case render.ShapeDiamond:
		return "diamond"
	default:
		return "box"
	}
}

func coord(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Validate parses dot with Graphviz and reports a RENDER_ERROR if it is not
// a well-formed graph.
func Validate(ctx context.Context, dot string) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return snaperrors.Wrap(snaperrors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return snaperrors.Wrap(snaperrors.ErrCodeRender, err, "parse DOT")
	}
	return g.Close()
}

// RenderSVG lays out dot with neato, keeping pinned positions, and returns
// the SVG produced by Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, snaperrors.Wrap(snaperrors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, snaperrors.Wrap(snaperrors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, snaperrors.Wrap(snaperrors.ErrCodeRender, err, "render")
	}
	return buf.Bytes(), nil
}
