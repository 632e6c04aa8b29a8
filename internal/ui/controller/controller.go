package controller

import (
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"xselect/internal/config"
	"xselect/internal/domain"
	"xselect/internal/eventbus"
	"xselect/internal/ui/services/remote"
	"xselect/internal/ui/services/search"
	"xselect/internal/ui/state"
)

// Controller turns user events into state transitions for one select widget
type Controller struct {
	mu sync.Mutex

	cfg       config.Config
	configErr error
	state     *state.SelectionState
	source    search.Source
	static    *search.StaticSource // nil when remote
	remote    *remote.Source       // nil when static
	data      []domain.Option      // full dataset

	bus    eventbus.EventBus
	client remote.Doer
	logger *slog.Logger
}

// Option customizes a Controller
type Option func(*Controller)

// WithBus sets the bus receiving selection and state events
func WithBus(b eventbus.EventBus) Option { return func(c *Controller) { c.bus = b } }

// WithHTTPClient sets the client used by a remote data source
func WithHTTPClient(d remote.Doer) Option { return func(c *Controller) { c.client = d } }

// New builds a widget from cfg. Configuration problems are logged and replaced
// with safe fallbacks; they remain available through ConfigErr.
// A resolved pre-selection is published on the bus before New returns, so
// subscribe first to observe it.
func New(cfg *config.Config, opts ...Option) *Controller {
	local := *cfg
	if cfg.API != nil {
		api := *cfg.API
		local.API = &api
	}
	configErr := config.Sanitize(&local)

	c := &Controller{
		cfg:       local,
		configErr: configErr,
		bus:       eventbus.NullBus{},
		logger:    local.Logger,
	}
	if local.Name != "" {
		c.logger = c.logger.With(slog.String("widget", local.Name))
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, err := range unwrapAll(configErr) {
		c.logger.Error("invalid configuration", slog.String("error", err.Error()))
	}

	if local.Remote() {
		c.state = state.New(local.Multiple, nil)
		remoteOpts := []remote.Option{remote.WithBus(c.bus), remote.WithLogger(c.logger)}
		if c.client != nil {
			remoteOpts = append(remoteOpts, remote.WithClient(c.client))
		}
		c.remote = remote.New(c.state, *local.API, remoteOpts...)
		c.source = c.remote
	} else {
		c.data = append([]domain.Option(nil), local.Data...)
		c.state = state.New(local.Multiple, c.data)
		c.static = search.NewStaticSource(c.state, c.data, local.SearchKeys)
		c.source = c.static
	}

	c.preselect()
	return c
}

func unwrapAll(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// preselect resolves configured ids against static data
func (c *Controller) preselect() {
	ids := c.cfg.PreSelected
	if len(ids) == 0 {
		return
	}
	if c.cfg.Remote() {
		c.logger.Warn("pre-selection is only supported for static data; ignoring", slog.Int("ids", len(ids)))
		return
	}
	if !c.cfg.Multiple {
		ids = ids[:1]
	}

	var found []domain.Option
	for _, id := range ids {
		if opt, ok := domain.FindOption(c.data, id); ok {
			found = append(found, opt)
		}
	}
	if len(found) == 0 {
		c.logger.Error("pre-selected ids not found in data", slog.Any("ids", ids))
		return
	}

	c.state.Update(func(f *state.Fields) {
		for _, opt := range found {
			f.Selection.Add(opt)
		}
	})
	c.publishSelection()
}

// Snapshot returns the current state for rendering
func (c *Controller) Snapshot() state.Snapshot {
	return c.state.Snapshot()
}

// Selected returns the selection in selection order
func (c *Controller) Selected() []domain.Option {
	return c.state.Snapshot().Selected
}

// Options returns the full, unfiltered dataset
func (c *Controller) Options() []domain.Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Option(nil), c.data...)
}

// Config returns the effective configuration after validation
func (c *Controller) Config() config.Config {
	return c.cfg
}

// ConfigErr returns the configuration problems found at construction
func (c *Controller) ConfigErr() error {
	return c.configErr
}

// NeedsMoreInput reports whether a remote source is waiting for a longer query,
// and the minimum length it needs.
func (c *Controller) NeedsMoreInput() (bool, int) {
	if c.remote == nil {
		return false, 0
	}
	minLen := c.remote.MinInputLength()
	return utf8.RuneCountInString(c.state.Search()) < minLen, minLen
}

// Open shows the dropdown
func (c *Controller) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openLocked()
}

// Toggle opens a closed dropdown and closes an open one
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Snapshot().Open {
		c.closeLocked()
		return
	}
	c.openLocked()
}

// Close hides the dropdown and resets the search text
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) openLocked() {
	opened, stale := false, false
	var search string
	c.state.Update(func(f *state.Fields) {
		if !f.Open {
			f.Open = true
			opened = true
			stale = len(f.FilteredData) == 0 && !f.Loading
			search = f.Search
		}
	})
	if !opened {
		return
	}
	// a remote list is empty until the first query; fetch on open
	if c.remote != nil && stale {
		c.source.Query(search)
	}
	c.bus.Publish(domain.DropdownToggledEvent{Open: true})
}

func (c *Controller) closeLocked() {
	wasOpen, searchReset := false, false
	c.state.Update(func(f *state.Fields) {
		wasOpen = f.Open
		f.Open = false
		if f.Search != "" {
			f.Search = ""
			searchReset = true
		}
	})
	if searchReset {
		c.source.Query("")
	}
	if wasOpen {
		c.bus.Publish(domain.DropdownToggledEvent{Open: false})
	}
}

// SetSearchText stores the query text and hands it to the data source
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Update(func(f *state.Fields) { f.Search = text })
	c.source.Query(text)
}

// Select replaces the selection in single mode and toggles membership in multiple mode
func (c *Controller) Select(opt domain.Option) {
	c.mu.Lock()
	notify := c.selectLocked(opt)
	c.mu.Unlock()

	notify()
}

// selectLocked applies opt and returns the OnSelect call, to be run after unlocking
func (c *Controller) selectLocked(opt domain.Option) func() {
	c.state.Update(func(f *state.Fields) {
		if c.cfg.Multiple {
			f.Selection.Toggle(opt)
		} else {
			f.Selection.Replace(opt)
		}
	})
	if c.cfg.CloseOnSelect {
		c.closeLocked()
	}
	selected := c.publishSelection()

	onSelect := c.cfg.OnSelect
	if onSelect == nil {
		return func() {}
	}
	data := append([]domain.Option(nil), c.data...)
	return func() { onSelect(selected, data) }
}

// Clear empties the selection. It fails with ErrRequired when a value is required.
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearLocked()
}

func (c *Controller) clearLocked() error {
	if c.cfg.Required {
		return domain.ErrRequired
	}
	c.state.Update(func(f *state.Fields) { f.Selection.Clear() })
	c.publishSelection()
	return nil
}

// ReplaceData swaps the dataset. The selection is reset and pending fetches are cancelled.
func (c *Controller) ReplaceData(opts []domain.Option) error {
	if err := domain.ValidateOptions(opts); err != nil {
		c.logger.Error("rejected data replacement", slog.String("error", err.Error()))
		return err
	}
	opts = append([]domain.Option(nil), opts...)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Update(func(f *state.Fields) { f.Selection.Clear() })
	c.data = opts
	if c.remote != nil {
		c.remote.Update(opts)
	} else {
		c.static.Update(opts)
	}

	c.publishSelection()
	c.bus.Publish(domain.DataReplacedEvent{Count: len(opts)})
	return nil
}

// ReplaceDataJSON decodes a JSON array of {id, text, ...} records and replaces the dataset
func (c *Controller) ReplaceDataJSON(raw []byte) error {
	opts, err := domain.DecodeOptions(raw)
	if err != nil {
		c.logger.Error("rejected data replacement", slog.String("error", err.Error()))
		return err
	}
	return c.ReplaceData(opts)
}

// SelectByID selects the option with id from the full dataset. NoID clears.
func (c *Controller) SelectByID(id domain.ID) error {
	if id == domain.NoID {
		return c.Clear()
	}

	c.mu.Lock()
	opt, ok := domain.FindOption(c.data, id)
	if !ok {
		c.mu.Unlock()
		err := fmt.Errorf("%w: option with id %q not found", domain.ErrLookup, id)
		c.logger.Error("select by id failed", slog.String("error", err.Error()))
		return err
	}
	notify := c.selectLocked(opt)
	c.mu.Unlock()

	notify()
	return nil
}

// Destroy stops timers and in-flight requests. The widget must not be used afterwards.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source.Close()
}

func (c *Controller) publishSelection() []domain.Option {
	selected := c.state.Snapshot().Selected
	c.bus.Publish(domain.SelectionChangedEvent{
		Selected: selected,
		Multiple: c.cfg.Multiple,
	})
	return selected
}
