package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"xselect/internal/domain"
)

// Mode selects between single and multiple selection. It never changes after construction.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
)

// Contents holds the user-facing texts a renderer shows
type Contents struct {
	SearchPlaceholder string `toml:"search_placeholder" yaml:"search_placeholder"`
	EmptyMessage      string `toml:"empty_message" yaml:"empty_message"`
	// MinInputLengthMessage is a fmt format receiving the minimum length.
	MinInputLengthMessage string `toml:"min_input_length_message" yaml:"min_input_length_message"`
	Loading               string `toml:"loading" yaml:"loading"`
	Error                 string `toml:"error" yaml:"error"`
}

// Defaults are the shared settings every widget starts from.
// A Defaults value is never mutated once built; New copies it per instance.
type Defaults struct {
	Placeholder   string   `toml:"placeholder" yaml:"placeholder"`
	AllowClear    bool     `toml:"allow_clear" yaml:"allow_clear"`
	Required      bool     `toml:"required" yaml:"required"`
	Multiple      bool     `toml:"multiple" yaml:"multiple"`
	CloseOnSelect bool     `toml:"close_on_select" yaml:"close_on_select"`
	SearchKeys    []string `toml:"search_keys" yaml:"search_keys"`
	Contents      Contents `toml:"contents" yaml:"contents"`
}

// DefaultDefaults returns the built-in defaults
func DefaultDefaults() Defaults {
	return Defaults{
		Placeholder:   "Select an option",
		CloseOnSelect: true,
		SearchKeys:    []string{"text"},
		Contents: Contents{
			SearchPlaceholder:     "Search...",
			EmptyMessage:          "No results found",
			MinInputLengthMessage: "Please enter %d or more characters",
			Loading:               "Loading...",
			Error:                 "An error occurred while fetching data.",
		},
	}
}

// Response is what a remote endpoint returned, handed to API.Result
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// API describes a remote data source
type API struct {
	URL     string
	URLFunc func(query string) string // takes precedence over URL

	Method string // default GET

	Data     map[string]any
	DataFunc func(query string) map[string]any // takes precedence over Data; default {"q": query}

	Headers map[string]string

	MinInputLength int
	Delay          time.Duration

	// Result maps a successful response to options. Default: decode a JSON array of options.
	Result func(Response) ([]domain.Option, error)
}

// Config is the per-instance widget configuration
type Config struct {
	Name          string
	Placeholder   string
	AllowClear    bool
	Required      bool
	Multiple      bool
	CloseOnSelect bool
	SearchKeys    []string
	Contents      Contents

	Data        []domain.Option
	API         *API
	PreSelected []domain.ID // static data only

	RenderOption   func(domain.Option) string
	RenderSelected func([]domain.Option) string
	OnSelect       func(selected []domain.Option, data []domain.Option)

	Logger *slog.Logger
}

// Option customizes a Config
type Option func(*Config)

// New merges defaults and options into a fresh Config
func New(d Defaults, opts ...Option) *Config {
	cfg := &Config{
		Placeholder:   d.Placeholder,
		AllowClear:    d.AllowClear,
		Required:      d.Required,
		Multiple:      d.Multiple,
		CloseOnSelect: d.CloseOnSelect,
		SearchKeys:    append([]string(nil), d.SearchKeys...),
		Contents:      d.Contents,
		Logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithName(name string) Option { return func(c *Config) { c.Name = name } }

func WithPlaceholder(p string) Option { return func(c *Config) { c.Placeholder = p } }

func WithMultiple(m bool) Option { return func(c *Config) { c.Multiple = m } }

func WithRequired(r bool) Option { return func(c *Config) { c.Required = r } }

func WithAllowClear(a bool) Option { return func(c *Config) { c.AllowClear = a } }

func WithCloseOnSelect(b bool) Option { return func(c *Config) { c.CloseOnSelect = b } }

func WithSearchKeys(keys ...string) Option {
	return func(c *Config) { c.SearchKeys = append([]string(nil), keys...) }
}

// WithData sets the static dataset. The slice is copied.
func WithData(opts []domain.Option) Option {
	return func(c *Config) { c.Data = append([]domain.Option(nil), opts...) }
}

func WithAPI(api API) Option { return func(c *Config) { c.API = &api } }

func WithPreSelected(ids ...domain.ID) Option {
	return func(c *Config) { c.PreSelected = append([]domain.ID(nil), ids...) }
}

func WithRenderOption(fn func(domain.Option) string) Option {
	return func(c *Config) { c.RenderOption = fn }
}

func WithRenderSelected(fn func([]domain.Option) string) Option {
	return func(c *Config) { c.RenderSelected = fn }
}

func WithOnSelect(fn func(selected []domain.Option, data []domain.Option)) Option {
	return func(c *Config) { c.OnSelect = fn }
}

func WithContents(contents Contents) Option { return func(c *Config) { c.Contents = contents } }

func WithLogger(logger *slog.Logger) Option { return func(c *Config) { c.Logger = logger } }

// Mode returns the selection mode
func (c *Config) Mode() Mode {
	if c.Multiple {
		return ModeMultiple
	}
	return ModeSingle
}

// Remote reports whether options come from an API
func (c *Config) Remote() bool {
	return c.API != nil
}

// MethodOrDefault returns the upper-cased HTTP method, GET when unset
func (a *API) MethodOrDefault() string {
	if a.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(a.Method)
}

// Sanitize validates cfg and replaces invalid settings with safe fallbacks.
// It returns every problem found, joined; cfg is usable afterwards either way.
func Sanitize(cfg *Config) error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrConfiguration}, args...)...))
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if len(cfg.SearchKeys) == 0 {
		report("search keys must be a non-empty list")
		cfg.SearchKeys = []string{"text"}
	} else {
		keys := cfg.SearchKeys[:0:0]
		for _, k := range cfg.SearchKeys {
			if strings.TrimSpace(k) == "" {
				report("search keys must not contain empty names")
				continue
			}
			keys = append(keys, k)
		}
		if len(keys) == 0 {
			keys = []string{"text"}
		}
		cfg.SearchKeys = keys
	}

	if cfg.API != nil {
		api := cfg.API
		if api.URL == "" && api.URLFunc == nil {
			report("api requires a url or url function; remote source disabled")
			cfg.API = nil
		} else {
			if api.MinInputLength < 0 {
				report("api min input length must not be negative, got %d", api.MinInputLength)
				api.MinInputLength = 0
			}
			if api.Delay < 0 {
				report("api delay must not be negative, got %s", api.Delay)
				api.Delay = 0
			}
			if api.Method != "" && !validMethod(api.Method) {
				report("api method %q is not a valid HTTP method", api.Method)
				api.Method = http.MethodGet
			}
		}
	}

	if cfg.API == nil {
		if err := domain.ValidateOptions(cfg.Data); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrConfiguration, err))
			cfg.Data = nil
		}
	}

	return errors.Join(errs...)
}

// Validate reports the problems Sanitize would repair, leaving cfg untouched
func Validate(cfg *Config) error {
	c := *cfg
	if cfg.API != nil {
		api := *cfg.API
		c.API = &api
	}
	return Sanitize(&c)
}

func validMethod(m string) bool {
	for _, r := range m {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return false
		}
	}
	return m != ""
}

// LoadDefaults reads defaults from a TOML or YAML file, on top of DefaultDefaults.
// Unknown keys and mistyped values are configuration errors.
func LoadDefaults(path string) (Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("failed to read defaults file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return DecodeDefaultsTOML(data)
	case ".yaml", ".yml":
		return DecodeDefaultsYAML(data)
	default:
		return Defaults{}, fmt.Errorf("%w: unsupported defaults file type %q", domain.ErrConfiguration, filepath.Ext(path))
	}
}

// DecodeDefaultsTOML parses TOML defaults strictly
func DecodeDefaultsTOML(data []byte) (Defaults, error) {
	d := DefaultDefaults()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Defaults{}, fmt.Errorf("%w: unknown option: %s", domain.ErrConfiguration, strict.String())
		}
		return Defaults{}, fmt.Errorf("%w: failed to parse defaults: %v", domain.ErrConfiguration, err)
	}
	return d, nil
}

// DecodeDefaultsYAML parses YAML defaults strictly
func DecodeDefaultsYAML(data []byte) (Defaults, error) {
	d := DefaultDefaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil && !errors.Is(err, io.EOF) {
		return Defaults{}, fmt.Errorf("%w: failed to parse defaults: %v", domain.ErrConfiguration, err)
	}
	return d, nil
}

// EncodeDefaults writes defaults as TOML
func EncodeDefaults(w io.Writer, d Defaults) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	return nil
}
