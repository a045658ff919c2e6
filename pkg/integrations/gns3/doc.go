// Package gns3 provides a client for the GNS3 server REST API v2.
//
// # Topology
//
// [Client.FetchTopology] returns a project's nodes, links and drawings as a
// topology.Topology:
//
//	client := gns3.NewClient("http://localhost:3080", gns3.WithCredentials("admin", "secret"))
//	topo, err := client.FetchTopology(ctx, projectID)
//
// # Symbols
//
// [Client.SymbolRaw] downloads the raw SVG or PNG of a symbol referenced by a
// node. The icon cache uses it as its first source tier.
package gns3
