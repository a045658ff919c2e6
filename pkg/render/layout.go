package render

import (
	"math"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

// transform maps source coordinates to canvas coordinates with a uniform
// scale.
type transform struct {
	scale float64
	offX  float64
	offY  float64
}

func (t transform) apply(x, y float64) Point {
	return Point{X: x*t.scale + t.offX, Y: y*t.scale + t.offY}
}

// fit computes the transform that places every node centre inside
// [padding + nodeSize/2, dim - padding - nodeSize/2] on both axes, keeping the
// aspect ratio and centring the slack. A topology that is a single point is
// drawn at scale 1 in the middle of the canvas; one that is flat along one
// axis takes its scale from the other axis.
func fit(b topology.Bounds, cfg Config) transform {
	ns := float64(cfg.NodeSize)
	pad := float64(cfg.Padding)
	aw := math.Max(0, float64(cfg.Width)-2*pad-ns)
	ah := math.Max(0, float64(cfg.Height)-2*pad-ns)
	bw, bh := b.Width(), b.Height()

	var s float64
	switch {
	case bw == 0 && bh == 0:
		s = 1
	case bw == 0:
		s = ah / bh
	case bh == 0:
		s = aw / bw
	default:
		s = math.Min(aw/bw, ah/bh)
	}

	return transform{
		scale: s,
		offX:  pad + ns/2 + (aw-bw*s)/2 - b.MinX*s,
		offY:  pad + ns/2 + (ah-bh*s)/2 - b.MinY*s,
	}
}

// clipDistance is how far from the node centre a link leaving in direction
// (ux, uy) crosses the node outline. Icons clip like squares.
func clipDistance(shape Shape, icon bool, ns, ux, uy float64) float64 {
	half := ns / 2
	ax, ay := math.Abs(ux), math.Abs(uy)
	if icon {
		return half / math.Max(ax, ay)
	}
	switch shape {
	case ShapeCircle, ShapeHexagon:
		return half
	case ShapeDiamond:
		return half / (ax + ay)
	default:
		return half / math.Max(ax, ay)
	}
}

// labelGap separates a port label from its link.
const labelGap = 4.0

// placePortLabels positions the two port labels of a link. Each label sits
// along the link, offset from its node's outline, and the pair is pushed to
// opposite sides of the segment: above/below for mostly horizontal links,
// left/right for mostly vertical ones. The side is picked from the anchor
// positions, so the two label boxes never intersect.
func placePortLabels(a, b Point, ux, uy, clipA, clipB, size float64, labelA, labelB string) (Text, Text) {
	off := size + labelGap
	pa := Point{X: a.X + ux*(clipA+off), Y: a.Y + uy*(clipA+off)}
	pb := Point{X: b.X - ux*(clipB+off), Y: b.Y - uy*(clipB+off)}

	ta := Text{Content: labelA, Size: size}
	tb := Text{Content: labelB, Size: size}

	ascent, descent := size, size*0.25
	if math.Abs(ux) >= math.Abs(uy) {
		// Horizontal link: the higher anchor goes above, the lower below.
		upper, lower := &ta, &tb
		pu, pl := pa, pb
		if pb.Y < pa.Y {
			upper, lower = &tb, &ta
			pu, pl = pb, pa
		}
		upper.X, upper.Y, upper.Anchor = pu.X, pu.Y-labelGap-descent, AnchorMiddle
		lower.X, lower.Y, lower.Anchor = pl.X, pl.Y+labelGap+ascent, AnchorMiddle
	} else {
		// Vertical link: the left anchor goes left, the right one right.
		left, right := &ta, &tb
		pL, pR := pa, pb
		if pb.X < pa.X {
			left, right = &tb, &ta
			pL, pR = pb, pa
		}
		left.X, left.Y, left.Anchor = pL.X-labelGap, pL.Y+ascent/3, AnchorEnd
		right.X, right.Y, right.Anchor = pR.X+labelGap, pR.Y+ascent/3, AnchorStart
	}
	return ta, tb
}

// shapeElement builds the outline for a node centred at c.
func shapeElement(shape Shape, c Point, ns float64, paint Paint) Element {
	half := ns / 2
	switch shape {
	case ShapeCircle:
		return Circle{CX: c.X, CY: c.Y, R: half, Paint: paint}
	case ShapeHexagon:
		pts := make([]Point, 6)
		for i := range pts {
			a := math.Pi / 3 * float64(i)
			pts[i] = Point{X: c.X + half*math.Cos(a), Y: c.Y + half*math.Sin(a)}
		}
		return Polygon{Points: pts, Paint: paint}
	case ShapeDiamond:
		return Polygon{Points: []Point{
			{X: c.X, Y: c.Y - half},
			{X: c.X + half, Y: c.Y},
			{X: c.X, Y: c.Y + half},
			{X: c.X - half, Y: c.Y},
		}, Paint: paint}
	default:
		return Rect{X: c.X - half, Y: c.Y - half, W: ns, H: ns, Radius: 5, Paint: paint}
	}
}
