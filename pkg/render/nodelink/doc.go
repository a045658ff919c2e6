// Package nodelink exports topologies as Graphviz node-link diagrams.
//
// # Overview
//
// [ToDOT] writes an undirected DOT graph in which every node is pinned to
// its GNS3 position, so Graphviz's neato engine reproduces the project
// layout. Node shapes and colors match the PNG thumbnail. The DOT file is a
// debugging artifact: it can be opened in any Graphviz tool and edited.
//
//	dot := nodelink.ToDOT(topo, nodelink.Options{PortLabels: true})
//	if err := nodelink.Validate(ctx, dot); err != nil { ... }
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process; no system installation is needed.
package nodelink
