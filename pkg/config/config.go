// Package config loads gns3-snapshot settings from a file and the
// environment.
//
// Files are TOML or YAML, chosen by extension. Values are applied in this
// order, later ones winning:
//
//  1. [Default]
//  2. the config file
//  3. a .env file in the working directory (loaded into the environment)
//  4. GNS3_SERVER, GNS3_USERNAME, GNS3_PASSWORD and GNS3_ICON_MIRROR
//  5. command-line flags (applied by the CLI)
//
// Example TOML:
//
//	workers = "auto"
//	job_timeout = "90s"
//
//	[server]
//	url = "http://192.168.1.100:3080"
//	username = "admin"
//
//	[render]
//	width = 1920
//	height = 1080
//	use_icons = true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/icons"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/pipeline"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
)

// Environment variables read by [Config.ApplyEnv].
const (
	EnvServer     = "GNS3_SERVER"
	EnvUsername   = "GNS3_USERNAME"
	EnvPassword   = "GNS3_PASSWORD"
	EnvIconMirror = "GNS3_ICON_MIRROR"
)

const (
	// DefaultServer is the local GNS3 server address.
	DefaultServer = "http://localhost:3080"

	// DefaultOutputDir receives thumbnails when no S3 bucket is configured.
	DefaultOutputDir = "thumbnails"

	// DefaultListenAddr is the serve command's address.
	DefaultListenAddr = ":8080"
)

// Config is the complete application configuration.
type Config struct {
	Server     ServerConfig     `toml:"server" yaml:"server"`
	Output     OutputConfig     `toml:"output" yaml:"output"`
	Icons      IconsConfig      `toml:"icons" yaml:"icons"`
	Render     render.Config    `toml:"render" yaml:"render"`
	Serve      ServeConfig      `toml:"serve" yaml:"serve"`
	Workers    pipeline.Workers `toml:"workers" yaml:"workers"`
	JobTimeout time.Duration    `toml:"job_timeout" yaml:"job_timeout" validate:"gte=0"`
}

// ServerConfig locates the GNS3 server.
type ServerConfig struct {
	URL      string `toml:"url" yaml:"url" validate:"required,http_url"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password" validate:"required_with=Username"`
}

// OutputConfig selects where thumbnails go. A non-empty S3Bucket replaces
// the local directory.
type OutputConfig struct {
	Dir         string `toml:"dir" yaml:"dir" validate:"required_without=S3Bucket"`
	S3Bucket    string `toml:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix    string `toml:"s3_prefix" yaml:"s3_prefix"`
	SaveSVG     bool   `toml:"save_svg" yaml:"save_svg"`
	SaveDOT     bool   `toml:"save_dot" yaml:"save_dot"`
	Report      string `toml:"report" yaml:"report"`
	MetricsFile string `toml:"metrics_file" yaml:"metrics_file"`
}

// IconsConfig configures the icon source chain beyond the GNS3 server.
type IconsConfig struct {
	Mirror      string `toml:"mirror" yaml:"mirror" validate:"omitempty,http_url"`
	SymbolsDir  string `toml:"symbols_dir" yaml:"symbols_dir"`
	RedisURL    string `toml:"redis_url" yaml:"redis_url" validate:"omitempty,url"`
	RedisPrefix string `toml:"redis_prefix" yaml:"redis_prefix"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `toml:"addr" yaml:"addr" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{URL: DefaultServer},
		Output: OutputConfig{Dir: DefaultOutputDir},
		Icons: IconsConfig{
			Mirror:      icons.DefaultMirror,
			RedisPrefix: icons.DefaultRedisPrefix,
		},
		Render:     render.DefaultConfig(),
		Serve:      ServeConfig{Addr: DefaultListenAddr},
		Workers:    pipeline.Auto,
		JobTimeout: pipeline.DefaultJobTimeout,
	}
}

// Load returns the default configuration overlaid with the file at path (if
// path is non-empty) and the environment, including a .env file in the
// working directory.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ReadFile decodes a TOML (.toml) or YAML (.yaml, .yml) file over c.
// Fields missing from the file keep their current values.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, err, "read config")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	default:
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	return nil
}

// LoadDotEnv loads files (default ".env") into the process environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, err, "load %s", f)
		}
	}
	return nil
}

// ApplyEnv overrides server and mirror settings from the environment.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvServer); ok && v != "" {
		c.Server.URL = v
	}
	if v, ok := lookup(EnvUsername); ok {
		c.Server.Username = v
	}
	if v, ok := lookup(EnvPassword); ok {
		c.Server.Password = v
	}
	if v, ok := lookup(EnvIconMirror); ok && v != "" {
		c.Icons.Mirror = v
	}
}

var validate = validator.New()

// Validate checks struct constraints and the render settings. Errors carry
// INVALID_CONFIG.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return snaperrors.Wrap(snaperrors.ErrCodeInvalidConfig, formatValidationError(err), "config")
	}
	if c.Workers < 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "workers must be \"auto\" or a positive integer")
	}
	return c.Render.Validate()
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Namespace()))
		case "required_with", "required_without":
			msgs = append(msgs, fmt.Sprintf("%s is required when %s is %s", fe.Namespace(), fe.Param(), presence(fe.Tag())))
		case "http_url", "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid URL, got %q", fe.Namespace(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func presence(tag string) string {
	if tag == "required_with" {
		return "set"
	}
	return "empty"
}
