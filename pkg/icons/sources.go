package icons

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/WrongGitUsername/gns3-snapshot/pkg/integrations"
)

// DefaultMirror hosts the stock GNS3 symbol set.
const DefaultMirror = "https://raw.githubusercontent.com/GNS3/gns3-gui/master/resources/symbols"

// ErrMiss is returned by a source that does not have the symbol.
var ErrMiss = errors.New("symbol not found")

// Source is one tier of the icon lookup chain. Fetch returns the raw symbol
// payload (SVG or bitmap) for a symbol reference exactly as it appears on
// the node; sources that are keyed by name normalize it themselves.
type Source interface {
	Name() string
	Fetch(ctx context.Context, symbol string) ([]byte, error)
}

// SymbolFetcher downloads symbols from the topology server.
type SymbolFetcher interface {
	SymbolRaw(ctx context.Context, symbol string) ([]byte, error)
}

// ServerSource asks the topology server for the symbol's raw payload.
type ServerSource struct {
	Fetcher SymbolFetcher
}

// NewServerSource wraps a topology server client.
func NewServerSource(f SymbolFetcher) *ServerSource {
	return &ServerSource{Fetcher: f}
}

func (s *ServerSource) Name() string { return "server" }

func (s *ServerSource) Fetch(ctx context.Context, symbol string) ([]byte, error) {
	return s.Fetcher.SymbolRaw(ctx, symbol)
}

// MirrorSource downloads {base}/{normalized}.svg from a static icon mirror.
type MirrorSource struct {
	client *integrations.Client
	base   string
}

// NewMirrorSource creates a mirror source. An empty base uses [DefaultMirror].
func NewMirrorSource(base string, opts ...integrations.Option) *MirrorSource {
	if base == "" {
		base = DefaultMirror
	}
	opts = append([]integrations.Option{integrations.WithTimeout(integrations.MirrorTimeout)}, opts...)
	return &MirrorSource{client: integrations.NewClient(opts...), base: base}
}

func (s *MirrorSource) Name() string { return "mirror" }

func (s *MirrorSource) Fetch(ctx context.Context, symbol string) ([]byte, error) {
	name := Normalize(symbol)
	if name == "" {
		return nil, ErrMiss
	}
	return s.client.GetBytes(ctx, integrations.JoinURL(s.base, name+".svg"))
}

// DirSource reads {dir}/{normalized}.svg or .png from a local symbols
// directory. The directory is never written to.
type DirSource struct {
	Dir string
}

// NewDirSource creates a source backed by dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) Name() string { return "local" }

func (s *DirSource) Fetch(ctx context.Context, symbol string) ([]byte, error) {
	name := Normalize(symbol)
	if name == "" {
		return nil, ErrMiss
	}
	for _, ext := range []string{".svg", ".png"} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, name+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", name+ext, err)
		}
	}
	return nil, ErrMiss
}
