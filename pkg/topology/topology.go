// Package topology defines the network topology model rendered into thumbnails.
//
// A [Topology] is fetched once per job and treated as read-only afterwards.
// Node positions are node centres in the source coordinate space; decoders
// that read GNS3 payloads (where x/y denote the top-left corner of the symbol)
// convert to centres using the symbol width and height when present.
package topology

// Topology is one project's network diagram.
type Topology struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name,omitempty"`
	Nodes     []Node    `json:"nodes"`
	Links     []Link    `json:"links"`
	Drawings  []Drawing `json:"drawings,omitempty"`
}

// Node is a device placed on the canvas.
type Node struct {
	ID     string  `json:"node_id"`
	Label  string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Symbol string  `json:"symbol,omitempty"`
	Kind   string  `json:"node_type,omitempty"`
}

// Link connects two node ports.
type Link struct {
	ID string   `json:"link_id"`
	A  Endpoint `json:"a"`
	B  Endpoint `json:"b"`
}

// Endpoint is one end of a link. Port and Adapter are nil when the source
// does not report them.
type Endpoint struct {
	NodeID  string `json:"node_id"`
	Label   string `json:"label,omitempty"`
	Port    *int   `json:"port_number,omitempty"`
	Adapter *int   `json:"adapter_number,omitempty"`
}

// Drawing is a free-form annotation such as a note or a shape. Unlike nodes,
// X and Y are its top-left corner. SVG is the document GNS3 stores for it.
type Drawing struct {
	ID  string  `json:"drawing_id"`
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   int     `json:"z,omitempty"`
	SVG string  `json:"svg"`
}

// Empty reports whether the topology has no nodes.
func (t *Topology) Empty() bool {
	return t == nil || len(t.Nodes) == 0
}

// NodeIndex maps node ids to their position in Nodes. When ids repeat, the
// first occurrence wins.
func (t *Topology) NodeIndex() map[string]int {
	idx := make(map[string]int, len(t.Nodes))
	for i, n := range t.Nodes {
		if _, ok := idx[n.ID]; !ok {
			idx[n.ID] = i
		}
	}
	return idx
}

// Symbols returns the distinct non-empty symbol references in node order.
func (t *Topology) Symbols() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range t.Nodes {
		if n.Symbol == "" || seen[n.Symbol] {
			continue
		}
		seen[n.Symbol] = true
		out = append(out, n.Symbol)
	}
	return out
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Union returns the smallest box containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// NodeBounds returns the bounding box of all node positions. ok is false for
// an empty topology.
func (t *Topology) NodeBounds() (b Bounds, ok bool) {
	if t.Empty() {
		return Bounds{}, false
	}
	b = Bounds{MinX: t.Nodes[0].X, MinY: t.Nodes[0].Y, MaxX: t.Nodes[0].X, MaxY: t.Nodes[0].Y}
	for _, n := range t.Nodes[1:] {
		b.MinX = min(b.MinX, n.X)
		b.MinY = min(b.MinY, n.Y)
		b.MaxX = max(b.MaxX, n.X)
		b.MaxY = max(b.MaxY, n.Y)
	}
	return b, true
}
