package gns3

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/integrations"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

// defaultProjectFile is used when the project metadata has no filename.
const defaultProjectFile = "project.gns3"

// closeTimeout bounds the best-effort close of a project this client opened.
const closeTimeout = 10 * time.Second

// ProjectInfo is the subset of GET /v2/projects/{id} used to pick a fetch path.
type ProjectInfo struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
}

// Opened reports whether the server already has the project loaded.
func (p ProjectInfo) Opened() bool { return p.Status == "opened" }

// Client talks to a GNS3 server's REST API v2.
// It is safe for concurrent use by multiple workers.
type Client struct {
	api     *integrations.Client
	symbols *integrations.Client
	baseURL string
	logger  *log.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	username, password string
	httpClient         *http.Client
	logger             *log.Logger
}

// WithCredentials enables HTTP basic auth.
func WithCredentials(username, password string) Option {
	return func(o *options) { o.username, o.password = username, password }
}

// WithHTTPClient replaces the transport for both API and symbol calls.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

// WithLogger sets the logger used for fast/slow path diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient creates a client for the server at baseURL (e.g. "http://localhost:3080").
func NewClient(baseURL string, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}

	api := []integrations.Option{
		integrations.WithBasicAuth(o.username, o.password),
		integrations.WithTimeout(integrations.ServerTimeout),
	}
	sym := []integrations.Option{
		integrations.WithBasicAuth(o.username, o.password),
		integrations.WithTimeout(integrations.SymbolTimeout),
	}
	if o.httpClient != nil {
		api = append(api, integrations.WithHTTPClient(o.httpClient))
		sym = append(sym, integrations.WithHTTPClient(o.httpClient))
	}

	return &Client{
		api:     integrations.NewClient(api...),
		symbols: integrations.NewClient(sym...),
		baseURL: baseURL,
		logger:  o.logger,
	}
}

// BaseURL returns the server URL the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(segments ...string) string {
	return integrations.JoinURL(c.baseURL, append([]string{"v2"}, segments...)...)
}

// Project fetches project metadata.
func (c *Client) Project(ctx context.Context, projectID string) (*ProjectInfo, error) {
	var info ProjectInfo
	if err := c.api.Get(ctx, c.url("projects", projectID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FetchTopology returns the nodes and links of a project.
//
// The fast path reads the .gns3 project file through the files endpoint and
// never starts the project. When that fails the client falls back to opening
// the project (if it is closed), listing nodes, links and drawings, and closing it
// again if this call opened it. All errors carry the FETCH_ERROR code.
func (c *Client) FetchTopology(ctx context.Context, projectID string) (*topology.Topology, error) {
	info, err := c.Project(ctx, projectID)
	if err != nil {
		return nil, fetchError(err, "get project %s", projectID)
	}

	topo, err := c.fromProjectFile(ctx, projectID, info)
	if err == nil {
		return topo, nil
	}
	if ctx.Err() != nil {
		return nil, fetchError(ctx.Err(), "read project file")
	}
	c.logger.Debug("project file unavailable, using API", "project", projectID, "err", err)

	return c.fromAPI(ctx, projectID, info)
}

func (c *Client) fromProjectFile(ctx context.Context, projectID string, info *ProjectInfo) (*topology.Topology, error) {
	filename := info.Filename
	if filename == "" {
		filename = defaultProjectFile
	}
	data, err := c.api.GetBytes(ctx, c.url("projects", projectID, "files", filename))
	if err != nil {
		return nil, err
	}
	topo, err := topology.DecodeProjectFile(data)
	if err != nil {
		return nil, err
	}
	topo.ProjectID = projectID
	if topo.Name == "" {
		topo.Name = info.Name
	}
	return topo, nil
}

func (c *Client) fromAPI(ctx context.Context, projectID string, info *ProjectInfo) (*topology.Topology, error) {
	if !info.Opened() {
		c.logger.Debug("opening project", "project", projectID)
		if err := c.api.Post(ctx, c.url("projects", projectID, "open"), nil); err != nil {
			return nil, fetchError(err, "open project %s", projectID)
		}
		defer c.closeProject(ctx, projectID)
	}

	data, err := c.api.GetBytes(ctx, c.url("projects", projectID, "nodes"))
	if err != nil {
		return nil, fetchError(err, "list nodes")
	}
	nodes, err := topology.DecodeNodes(data)
	if err != nil {
		return nil, fetchError(err, "list nodes")
	}

	data, err = c.api.GetBytes(ctx, c.url("projects", projectID, "links"))
	if err != nil {
		return nil, fetchError(err, "list links")
	}
	links, err := topology.DecodeLinks(data)
	if err != nil {
		return nil, fetchError(err, "list links")
	}

	return &topology.Topology{
		ProjectID: projectID,
		Name:      info.Name,
		Nodes:     nodes,
		Links:     links,
		Drawings:  c.drawings(ctx, projectID),
	}, nil
}

// drawings lists a project's annotations. They are decoration: a server that
// cannot list them still yields a topology.
func (c *Client) drawings(ctx context.Context, projectID string) []topology.Drawing {
	data, err := c.api.GetBytes(ctx, c.url("projects", projectID, "drawings"))
	if err == nil {
		var drawings []topology.Drawing
		if drawings, err = topology.DecodeDrawings(data); err == nil {
			return drawings
		}
	}
	c.logger.Warn("drawings unavailable", "project", projectID, "err", err)
	return nil
}

// closeProject runs even when the job context is already done, so a project
// opened by this client is not left running on the server.
func (c *Client) closeProject(ctx context.Context, projectID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	if err := c.api.Post(ctx, c.url("projects", projectID, "close"), nil); err != nil {
		c.logger.Warn("close project failed", "project", projectID, "err", err)
	}
}

// SymbolRaw downloads the raw bytes of a server-side symbol such as
// ":/symbols/router.svg".
func (c *Client) SymbolRaw(ctx context.Context, symbol string) ([]byte, error) {
	u := c.url("symbols") + "/" + integrations.EscapePath(symbol) + "/raw"
	return c.symbols.GetBytes(ctx, u)
}

func fetchError(err error, format string, args ...any) error {
	return snaperrors.FromContext(err, format, args...)
}
