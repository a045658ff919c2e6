// Package integrations provides HTTP clients for the services a thumbnail run
// talks to.
//
// # Overview
//
// The [Client] type wraps net/http with the behaviour every caller needs:
//
//   - Per-request timeouts ([ServerTimeout], [SymbolTimeout], [MirrorTimeout])
//   - Optional HTTP basic auth for the topology server
//   - Status mapping to [ErrNotFound], [ErrUnauthorized] and [ErrNetwork]
//   - Request/response events sent to observability.HTTPHooks
//
// There is no retry layer: a failed request fails its job, and the icon
// cache's source chain is the only fallback.
//
// Service-specific clients live in subpackages:
//
//   - [gns3]: GNS3 server REST API v2 (projects, nodes, links, symbols)
//
// [gns3]: github.com/WrongGitUsername/gns3-snapshot/pkg/integrations/gns3
package integrations
