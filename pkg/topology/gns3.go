package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// The types below mirror the subset of the GNS3 v2 API and .gns3 project
// file schema that thumbnails need. Unknown fields are ignored.

type gns3Node struct {
	NodeID   string   `json:"node_id"`
	Name     string   `json:"name"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Symbol   string   `json:"symbol"`
	NodeType string   `json:"node_type"`
}

type gns3Label struct {
	Text string `json:"text"`
}

type gns3LinkEnd struct {
	NodeID        string     `json:"node_id"`
	AdapterNumber *int       `json:"adapter_number"`
	PortNumber    *int       `json:"port_number"`
	Label         *gns3Label `json:"label"`
}

type gns3Link struct {
	LinkID string        `json:"link_id"`
	Nodes  []gns3LinkEnd `json:"nodes"`
}

type gns3Drawing struct {
	DrawingID string  `json:"drawing_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         int     `json:"z"`
	SVG       string  `json:"svg"`
}

type gns3Topology struct {
	Nodes    []gns3Node    `json:"nodes"`
	Links    []gns3Link    `json:"links"`
	Drawings []gns3Drawing `json:"drawings"`
}

type gns3ProjectFile struct {
	ProjectID string        `json:"project_id"`
	Name      string        `json:"name"`
	Topology  *gns3Topology `json:"topology"`
	Nodes     []gns3Node    `json:"nodes"`
	Links     []gns3Link    `json:"links"`
	Drawings  []gns3Drawing `json:"drawings"`
}

// ErrNoTopology is returned by [DecodeProjectFile] when the document has
// neither a "topology" object nor root-level "nodes".
var ErrNoTopology = errors.New("project file has no topology section")

// DecodeNodes decodes the body of GET /v2/projects/{id}/nodes.
func DecodeNodes(data []byte) ([]Node, error) {
	var raw []gns3Node
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode nodes: %w", err)
	}
	return convertNodes(raw), nil
}

// DecodeLinks decodes the body of GET /v2/projects/{id}/links.
func DecodeLinks(data []byte) ([]Link, error) {
	var raw []gns3Link
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	return convertLinks(raw), nil
}

// DecodeDrawings decodes the body of GET /v2/projects/{id}/drawings.
func DecodeDrawings(data []byte) ([]Drawing, error) {
	var raw []gns3Drawing
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode drawings: %w", err)
	}
	return convertDrawings(raw), nil
}

// DecodeProjectFile decodes a .gns3 project file. Newer files nest nodes and
// links under "topology"; older ones keep them at the root.
func DecodeProjectFile(data []byte) (*Topology, error) {
	var f gns3ProjectFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode project file: %w", err)
	}

	var nodes []gns3Node
	var links []gns3Link
	var drawings []gns3Drawing
	switch {
	case f.Topology != nil:
		nodes, links, drawings = f.Topology.Nodes, f.Topology.Links, f.Topology.Drawings
	case f.Nodes != nil:
		nodes, links, drawings = f.Nodes, f.Links, f.Drawings
	default:
		return nil, ErrNoTopology
	}

	return &Topology{
		ProjectID: f.ProjectID,
		Name:      f.Name,
		Nodes:     convertNodes(nodes),
		Links:     convertLinks(links),
		Drawings:  convertDrawings(drawings),
	}, nil
}

func convertNodes(raw []gns3Node) []Node {
	nodes := make([]Node, 0, len(raw))
	for _, n := range raw {
		x, y := n.X, n.Y
		if n.Width != nil {
			x += *n.Width / 2
		}
		if n.Height != nil {
			y += *n.Height / 2
		}
		nodes = append(nodes, Node{
			ID:     n.NodeID,
			Label:  n.Name,
			X:      x,
			Y:      y,
			Symbol: n.Symbol,
			Kind:   n.NodeType,
		})
	}
	return nodes
}

// convertLinks drops links that do not have exactly two endpoints.
func convertLinks(raw []gns3Link) []Link {
	links := make([]Link, 0, len(raw))
	for _, l := range raw {
		if len(l.Nodes) != 2 {
			continue
		}
		links = append(links, Link{
			ID: l.LinkID,
			A:  convertEnd(l.Nodes[0]),
			B:  convertEnd(l.Nodes[1]),
		})
	}
	return links
}

func convertEnd(e gns3LinkEnd) Endpoint {
	ep := Endpoint{NodeID: e.NodeID, Port: e.PortNumber, Adapter: e.AdapterNumber}
	if e.Label != nil {
		ep.Label = e.Label.Text
	}
	return ep
}

// convertDrawings drops drawings without an SVG body.
func convertDrawings(raw []gns3Drawing) []Drawing {
	var drawings []Drawing
	for _, d := range raw {
		if strings.TrimSpace(d.SVG) == "" {
			continue
		}
		drawings = append(drawings, Drawing{ID: d.DrawingID, X: d.X, Y: d.Y, Z: d.Z, SVG: d.SVG})
	}
	return drawings
}
