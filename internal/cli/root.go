// Package cli provides the xselect command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"xselect/internal/config"
	"xselect/internal/domain"
	"xselect/internal/eventbus"
	"xselect/internal/logging"
	"xselect/internal/ui"
	"xselect/internal/ui/controller"
)

// defaultsFile is picked up from the working directory when --defaults is not given
const defaultsFile = ".xselect.toml"

// queryTimeout bounds how long a one-shot query waits for a remote answer
const queryTimeout = 30 * time.Second

type options struct {
	title      string
	dataPath   string
	url        string
	method     string
	headers    []string
	minLength  int
	delay      time.Duration
	multiple   bool
	required   bool
	allowClear bool
	keepOpen   bool
	searchKeys []string
	preselect  []string
	defaults   string
	logFile    string
	logLevel   string
	query      string
}

// NewRootCmd creates the root command for the xselect CLI.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "xselect",
		Short: "Searchable single or multiple choice picker",
		Long: `xselect shows a searchable dropdown over a JSON option list or a remote
search endpoint and prints the final selection as JSON.

Options are records with at least "id" and "text". With --url, every
keystroke queries the endpoint (debounced by --delay).

When stdout is not a terminal, or --query is given, xselect runs one
search and prints the matching options instead of starting the picker.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.title, "title", "", "Title shown above the picker")
	f.StringVar(&opts.dataPath, "data", "", "JSON file with the option list")
	f.StringVar(&opts.url, "url", "", "Remote search endpoint")
	f.StringVar(&opts.method, "method", "GET", "HTTP method for the remote endpoint")
	f.StringArrayVar(&opts.headers, "header", nil, "Request header as key=value (repeatable)")
	f.IntVar(&opts.minLength, "min-length", 0, "Minimum query length before the endpoint is called")
	f.DurationVar(&opts.delay, "delay", 250*time.Millisecond, "Debounce delay for remote queries")
	f.BoolVar(&opts.multiple, "multiple", false, "Allow selecting several options")
	f.BoolVar(&opts.required, "required", false, "Refuse to clear the selection")
	f.BoolVar(&opts.allowClear, "allow-clear", false, "Show a clear marker next to the selection")
	f.BoolVar(&opts.keepOpen, "keep-open", false, "Keep the dropdown open after selecting")
	f.StringSliceVar(&opts.searchKeys, "search-keys", nil, "Option fields searched by the static filter")
	f.StringArrayVar(&opts.preselect, "select", nil, "Pre-selected option id (repeatable)")
	f.StringVar(&opts.query, "query", "", "Run one search and print the matches")

	p := cmd.PersistentFlags()
	p.StringVar(&opts.defaults, "defaults", "", "TOML or YAML file with default settings (default ./"+defaultsFile+")")
	p.StringVar(&opts.logFile, "log-file", logging.DefaultConfig().FilePath, "Log file, empty to disable")
	p.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newDefaultsCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func run(cmd *cobra.Command, opts *options) error {
	logCfg := logging.DefaultConfig()
	logCfg.FilePath = opts.logFile
	logCfg.Level = opts.logLevel
	logger, cleanup := logging.Setup(logCfg)
	defer cleanup()

	defaults, err := loadDefaults(opts.defaults)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cmd, opts, defaults, logger)
	if err != nil {
		return err
	}

	bus := eventbus.NewWithLogger(logger)
	defer bus.Close()

	if cmd.Flags().Changed("query") || !interactive() {
		ctrl := controller.New(cfg, controller.WithBus(bus))
		defer ctrl.Destroy()

		ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
		defer cancel()
		return runQuery(ctx, ctrl, bus, opts.query, cmd.OutOrStdout())
	}

	// Subscribe before construction so the pre-selection event reaches the UI
	events, unsubscribe := forwardEvents(bus, logger)
	defer unsubscribe()

	ctrl := controller.New(cfg, controller.WithBus(bus))
	defer ctrl.Destroy()

	return runInteractive(ctrl, events, opts.title, logger, cmd.OutOrStdout())
}

func interactive() bool {
	for _, f := range []*os.File{os.Stdin, os.Stdout} {
		if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
			return false
		}
	}
	return true
}

// loadDefaults reads the explicit defaults file, or ./.xselect.toml when present
func loadDefaults(path string) (config.Defaults, error) {
	if path == "" {
		if _, err := os.Stat(defaultsFile); err != nil {
			return config.DefaultDefaults(), nil
		}
		path = defaultsFile
	}
	d, err := config.LoadDefaults(path)
	if err != nil {
		return config.Defaults{}, fmt.Errorf("failed to load defaults from %s: %w", path, err)
	}
	return d, nil
}

// buildConfig merges defaults with the flags the user actually set
func buildConfig(cmd *cobra.Command, opts *options, d config.Defaults, logger *slog.Logger) (*config.Config, error) {
	flags := cmd.Flags()
	cfgOpts := []config.Option{
		config.WithName(opts.title),
		config.WithLogger(logger),
	}

	if flags.Changed("multiple") {
		cfgOpts = append(cfgOpts, config.WithMultiple(opts.multiple))
	}
	if flags.Changed("required") {
		cfgOpts = append(cfgOpts, config.WithRequired(opts.required))
	}
	if flags.Changed("allow-clear") {
		cfgOpts = append(cfgOpts, config.WithAllowClear(opts.allowClear))
	}
	if flags.Changed("keep-open") {
		cfgOpts = append(cfgOpts, config.WithCloseOnSelect(!opts.keepOpen))
	}
	if flags.Changed("search-keys") {
		cfgOpts = append(cfgOpts, config.WithSearchKeys(opts.searchKeys...))
	}
	if len(opts.preselect) > 0 {
		ids := make([]domain.ID, 0, len(opts.preselect))
		for _, id := range opts.preselect {
			ids = append(ids, domain.ID(id))
		}
		cfgOpts = append(cfgOpts, config.WithPreSelected(ids...))
	}

	switch {
	case opts.url != "" && opts.dataPath != "":
		return nil, fmt.Errorf("%w: --data and --url are mutually exclusive", domain.ErrConfiguration)

	case opts.url != "":
		headers, err := parseHeaders(opts.headers)
		if err != nil {
			return nil, err
		}
		cfgOpts = append(cfgOpts, config.WithAPI(config.API{
			URL:            opts.url,
			Method:         opts.method,
			Headers:        headers,
			MinInputLength: opts.minLength,
			Delay:          opts.delay,
		}))

	case opts.dataPath != "":
		raw, err := os.ReadFile(opts.dataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		data, err := domain.DecodeOptions(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid data file %s: %w", opts.dataPath, err)
		}
		cfgOpts = append(cfgOpts, config.WithData(data))

	default:
		return nil, fmt.Errorf("%w: one of --data or --url is required", domain.ErrConfiguration)
	}

	cfg := config.New(d, cfgOpts...)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		k, v, ok := strings.Cut(h, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("%w: header %q must be key=value", domain.ErrConfiguration, h)
		}
		headers[strings.TrimSpace(k)] = v
	}
	return headers, nil
}

// runQuery performs a single search and prints the matching options as JSON
func runQuery(ctx context.Context, ctrl *controller.Controller, bus eventbus.EventBus, text string, out io.Writer) error {
	settled := make(chan struct{}, 1)
	notify := func(eventbus.DomainEvent) {
		select {
		case settled <- struct{}{}:
		default:
		}
	}
	unsubState := bus.Subscribe(eventbus.EventStateChanged, notify)
	defer unsubState()
	unsubFail := bus.Subscribe(eventbus.EventFetchFailed, notify)
	defer unsubFail()

	ctrl.SetSearchText(text)

	for ctrl.Snapshot().Loading {
		select {
		case <-settled:
		case <-ctx.Done():
			return fmt.Errorf("query %q did not finish: %w", text, ctx.Err())
		}
	}

	snap := ctrl.Snapshot()
	if snap.Error {
		return fmt.Errorf("%w: query %q failed", domain.ErrFetch, text)
	}
	if needs, minLen := ctrl.NeedsMoreInput(); needs {
		return fmt.Errorf("query %q is shorter than the minimum of %d characters", text, minLen)
	}

	return writeJSON(out, nonNil(snap.FilteredData))
}

// forwardEvents buffers every event the UI redraws on
func forwardEvents(bus eventbus.EventBus, logger *slog.Logger) (<-chan eventbus.DomainEvent, func()) {
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			logger.Warn("event channel full, dropping event", slog.String("type", string(e.Type())))
		}
	}

	var unsubs []func()
	for _, t := range []eventbus.EventType{
		eventbus.EventSelectionChanged,
		eventbus.EventStateChanged,
		eventbus.EventDropdownToggled,
		eventbus.EventFetchFailed,
		eventbus.EventDataReplaced,
	} {
		unsubs = append(unsubs, bus.Subscribe(t, forward))
	}

	return eventChan, func() {
		for _, unsubscribe := range unsubs {
			unsubscribe()
		}
	}
}

func runInteractive(ctrl *controller.Controller, events <-chan eventbus.DomainEvent, title string, logger *slog.Logger, out io.Writer) error {
	model := ui.NewModel(ctrl, title)
	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(p)

	// Forward domain events to the UI
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case e := <-events:
				p.Send(ui.EventMsg{Event: e})
			case <-done:
				return
			}
		}
	}()

	logger.Info("starting picker")
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return writeSelection(out, model.Selected(), ctrl.Config().Multiple)
}

// writeSelection prints an object (or null) in single mode and an array in multiple mode
func writeSelection(out io.Writer, selected []domain.Option, multiple bool) error {
	if multiple {
		return writeJSON(out, nonNil(selected))
	}
	if len(selected) == 0 {
		return writeJSON(out, nil)
	}
	return writeJSON(out, selected[0])
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func nonNil(opts []domain.Option) []domain.Option {
	if opts == nil {
		return []domain.Option{}
	}
	return opts
}

// IsConfigError reports whether err was caused by bad flags or settings
func IsConfigError(err error) bool {
	return errors.Is(err, domain.ErrConfiguration) || errors.Is(err, domain.ErrValidation)
}
