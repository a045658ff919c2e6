package topology

import (
	"errors"
	"reflect"
	"testing"
)

func TestNodeBounds(t *testing.T) {
	topo := &Topology{Nodes: []Node{
		{ID: "a", X: 10, Y: -5},
		{ID: "b", X: -20, Y: 30},
		{ID: "c", X: 0, Y: 0},
	}}

	b, ok := topo.NodeBounds()
	if !ok {
		t.Fatal("NodeBounds() ok = false, want true")
	}
	want := Bounds{MinX: -20, MinY: -5, MaxX: 10, MaxY: 30}
	if b != want {
		t.Errorf("NodeBounds() = %+v, want %+v", b, want)
	}
	if b.Width() != 30 || b.Height() != 35 {
		t.Errorf("extent = %vx%v, want 30x35", b.Width(), b.Height())
	}
}

func TestNodeBoundsEmpty(t *testing.T) {
	if _, ok := (&Topology{}).NodeBounds(); ok {
		t.Error("NodeBounds() on empty topology should report ok = false")
	}
	var nilTopo *Topology
	if !nilTopo.Empty() {
		t.Error("nil topology should be empty")
	}
}

func TestNodeIndexFirstWins(t *testing.T) {
	topo := &Topology{Nodes: []Node{{ID: "a"}, {ID: "b"}, {ID: "a", Label: "dup"}}}
	idx := topo.NodeIndex()
	if idx["a"] != 0 || idx["b"] != 1 {
		t.Errorf("NodeIndex() = %v", idx)
	}
}

func TestSymbols(t *testing.T) {
	topo := &Topology{Nodes: []Node{
		{Symbol: ":/symbols/router.svg"},
		{Symbol: ""},
		{Symbol: ":/symbols/vpcs_guest.svg"},
		{Symbol: ":/symbols/router.svg"},
	}}
	want := []string{":/symbols/router.svg", ":/symbols/vpcs_guest.svg"}
	if got := topo.Symbols(); !reflect.DeepEqual(got, want) {
		t.Errorf("Symbols() = %v, want %v", got, want)
	}
}

func TestDecodeNodesCentres(t *testing.T) {
	data := []byte(`[
		{"node_id": "n1", "name": "R1", "x": 100, "y": 50, "width": 66, "height": 45,
		 "symbol": ":/symbols/router.svg", "node_type": "dynamips"},
		{"node_id": "n2", "name": "PC1", "x": -10, "y": 20, "node_type": "vpcs"}
	]`)

	nodes, err := DecodeNodes(data)
	if err != nil {
		t.Fatalf("DecodeNodes() error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}

	r1 := nodes[0]
	if r1.X != 133 || r1.Y != 72.5 {
		t.Errorf("R1 centre = (%v, %v), want (133, 72.5)", r1.X, r1.Y)
	}
	if r1.Label != "R1" || r1.Kind != "dynamips" || r1.Symbol != ":/symbols/router.svg" {
		t.Errorf("R1 = %+v", r1)
	}

	if pc := nodes[1]; pc.X != -10 || pc.Y != 20 {
		t.Errorf("PC1 without size should keep raw position, got (%v, %v)", pc.X, pc.Y)
	}
}

func TestDecodeLinks(t *testing.T) {
	data := []byte(`[
		{"link_id": "l1", "nodes": [
			{"node_id": "n1", "adapter_number": 0, "port_number": 0, "label": {"text": "e0/0"}},
			{"node_id": "n2", "adapter_number": 1, "port_number": 3}
		]},
		{"link_id": "broken", "nodes": [{"node_id": "n1"}]}
	]`)

	links, err := DecodeLinks(data)
	if err != nil {
		t.Fatalf("DecodeLinks() error: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("len(links) = %d, want 1 (links without two endpoints are dropped)", len(links))
	}

	l := links[0]
	if l.A.NodeID != "n1" || l.A.Label != "e0/0" {
		t.Errorf("A = %+v", l.A)
	}
	if l.B.Label != "" {
		t.Errorf("B.Label = %q, want empty", l.B.Label)
	}
	if l.B.Port == nil || *l.B.Port != 3 || l.B.Adapter == nil || *l.B.Adapter != 1 {
		t.Errorf("B port/adapter = %v/%v, want 3/1", l.B.Port, l.B.Adapter)
	}
}

func TestDecodeProjectFile(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantNodes    int
		wantLinks    int
		wantDrawings int
		wantErr      error
	}{
		{
			name: "nested topology",
			data: `{"project_id": "p1", "name": "lab", "topology": {
				"nodes": [{"node_id": "a", "x": 0, "y": 0}, {"node_id": "b", "x": 10, "y": 0}],
				"links": [{"link_id": "l", "nodes": [{"node_id": "a"}, {"node_id": "b"}]}]}}`,
			wantNodes: 2,
			wantLinks: 1,
		},
		{
			name:      "root level nodes",
			data:      `{"project_id": "p1", "nodes": [{"node_id": "a"}], "links": []}`,
			wantNodes: 1,
		},
		{
			name: "nested drawings",
			data: `{"project_id": "p1", "topology": {"nodes": [], "links": [], "drawings": [
				{"drawing_id": "d1", "x": -50, "y": 20, "z": 1, "svg": "<svg width=\"80\" height=\"40\"><rect width=\"80\" height=\"40\"/></svg>"},
				{"drawing_id": "d2", "x": 0, "y": 0, "svg": ""}]}}`,
			wantDrawings: 1,
		},
		{
			name:         "root level drawings",
			data:         `{"project_id": "p1", "nodes": [], "drawings": [{"drawing_id": "d1", "svg": "<svg/>"}]}`,
			wantDrawings: 1,
		},
		{
			name:      "empty nested topology",
			data:      `{"project_id": "p1", "topology": {}}`,
			wantNodes: 0,
		},
		{
			name:    "no topology",
			data:    `{"project_id": "p1", "name": "lab"}`,
			wantErr: ErrNoTopology,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo, err := DecodeProjectFile([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeProjectFile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeProjectFile() error: %v", err)
			}
			if len(topo.Nodes) != tt.wantNodes || len(topo.Links) != tt.wantLinks {
				t.Errorf("got %d nodes, %d links; want %d, %d",
					len(topo.Nodes), len(topo.Links), tt.wantNodes, tt.wantLinks)
			}
			if len(topo.Drawings) != tt.wantDrawings {
				t.Errorf("got %d drawings, want %d", len(topo.Drawings), tt.wantDrawings)
			}
			if topo.ProjectID != "p1" {
				t.Errorf("ProjectID = %q, want p1", topo.ProjectID)
			}
		})
	}
}

func TestDecodeDrawings(t *testing.T) {
	data := `[
		{"drawing_id": "d1", "x": -50, "y": 20, "z": 2, "rotation": 0, "svg": "<svg width=\"80\" height=\"40\"></svg>"},
		{"drawing_id": "d2", "x": 0, "y": 0, "svg": "  "}
	]`
	got, err := DecodeDrawings([]byte(data))
	if err != nil {
		t.Fatalf("DecodeDrawings() error: %v", err)
	}
	want := []Drawing{{ID: "d1", X: -50, Y: 20, Z: 2, SVG: `<svg width="80" height="40"></svg>`}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeDrawings() = %+v, want %+v", got, want)
	}
	if _, err := DecodeDrawings([]byte(`{}`)); err == nil {
		t.Error("DecodeDrawings() should fail on an object")
	}
}

func TestBoundsUnion(t *testing.T) {
	a := Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	b := Bounds{MinX: -5, MinY: 3, MaxX: 8, MaxY: 20}
	want := Bounds{MinX: -5, MinY: 0, MaxX: 10, MaxY: 20}
	if got := a.Union(b); got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := DecodeNodes([]byte(`{"not": "a list"}`)); err == nil {
		t.Error("DecodeNodes() should fail on an object")
	}
	if _, err := DecodeLinks([]byte(`[`)); err == nil {
		t.Error("DecodeLinks() should fail on truncated JSON")
	}
	if _, err := DecodeProjectFile([]byte(`nope`)); err == nil {
		t.Error("DecodeProjectFile() should fail on invalid JSON")
	}
}
