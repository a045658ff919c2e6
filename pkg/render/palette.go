package render

import (
	"hash/fnv"
	"strings"
)

// DefaultNodeColor is used for nodes without a kind.
const DefaultNodeColor = "#9B9B9B"

// kindColors is matched in order against the lower-cased node kind; the first
// entry contained in the kind wins.
var kindColors = []struct {
	key, color string
}{
	{"router", "#4A90E2"},
	{"dynamips", "#4A90E2"},
	{"iou", "#4A90E2"},
	{"ethernet_switch", "#7ED321"},
	{"ethernet_hub", "#B8E986"},
	{"frame_relay_switch", "#4A90E2"},
	{"atm_switch", "#4A90E2"},
	{"switch", "#7ED321"},
	{"vpcs", "#F5A623"},
	{"cloud", "#50E3C2"},
	{"nat", "#BD10E0"},
}

// hashPalette colors kinds that have no fixed color.
var hashPalette = []string{
	"#D0021B", "#8B572A", "#417505", "#9013FE",
	"#E86A92", "#2D9CDB", "#F2994A", "#6FCF97",
}

// NodeColor returns the fill color for a node kind. The result depends only
// on the kind.
func NodeColor(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if k == "" {
		return DefaultNodeColor
	}
	for _, kc := range kindColors {
		if strings.Contains(k, kc.key) {
			return kc.color
		}
	}
	h := fnv.New32a()
	h.Write([]byte(k))
	return hashPalette[h.Sum32()%uint32(len(hashPalette))]
}

// Shape is the outline drawn for a node without an icon.
type Shape int

const (
	ShapeRoundedSquare Shape = iota
	ShapeCircle
	ShapeHexagon
	ShapeDiamond
)

func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeHexagon:
		return "hexagon"
	case ShapeDiamond:
		return "diamond"
	default:
		return "rounded-square"
	}
}

// NodeShape returns the outline for a node kind: circles for routers,
// hexagons for clouds and NAT, diamonds for WAN switches, rounded squares
// for everything else.
func NodeShape(kind string) Shape {
	k := strings.ToLower(kind)
	switch {
	case strings.Contains(k, "router"), k == "dynamips", k == "iou":
		return ShapeCircle
	case k == "cloud", k == "nat":
		return ShapeHexagon
	case k == "frame_relay_switch", k == "atm_switch":
		return ShapeDiamond
	default:
		return ShapeRoundedSquare
	}
}
