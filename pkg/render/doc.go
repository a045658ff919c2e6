// Package render turns a GNS3 topology into a thumbnail drawing.
//
// # Overview
//
// [Render] maps node coordinates onto a fixed canvas and produces a
// [Drawing]: an ordered, resolution-independent display list. Backends
// consume the drawing:
//
//   - [Drawing.SVG] serializes it as a standalone SVG document
//   - the [raster] subpackage paints it into a PNG
//   - the [nodelink] subpackage exports the topology as Graphviz DOT
//
// # Layout
//
// Node positions are scaled uniformly so the bounding box of all node centres
// fits inside the canvas minus padding and half a node on every side; the
// slack is split evenly. Links are clipped to the node outlines and, when
// enabled, carry their port labels near each end on opposite sides of the
// segment.
//
// Project drawings (notes and shapes) take part in the fit with their whole
// box and are painted between links and nodes in z order. Their SVG shapes
// are rasterized to an embedded image; their text becomes text elements.
//
// Nodes are drawn with their server icon when an [icons.Resolver] provides
// one, otherwise as a shape colored by node kind:
//
//	cfg := render.NewConfig(render.WithSize(400, 300), render.WithIcons(true))
//	d, err := render.Render(ctx, topo, iconCache, cfg)
//	svg := d.SVG()
//
// Rendering is deterministic: identical input produces an identical drawing.
//
// [raster]: github.com/WrongGitUsername/gns3-snapshot/pkg/render/raster
// [nodelink]: github.com/WrongGitUsername/gns3-snapshot/pkg/render/nodelink
package render
