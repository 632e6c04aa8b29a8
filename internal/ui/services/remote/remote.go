package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	"xselect/internal/config"
	"xselect/internal/domain"
	"xselect/internal/eventbus"
	"xselect/internal/ui/state"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source queries a remote endpoint, debounced and cancellable.
// Only the most recently issued query may ever commit to the state.
type Source struct {
	api    config.API
	state  *state.SelectionState
	client Doer
	bus    eventbus.EventBus
	logger *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	cancel   context.CancelFunc // in-flight request
	inflight uint64             // id of the request owning cancel
	closed   bool
}

// Option customizes a Source
type Option func(*Source)

// WithClient sets the HTTP client
func WithClient(d Doer) Option { return func(s *Source) { s.client = d } }

// WithBus sets the bus that receives StateChanged and FetchFailed events
func WithBus(b eventbus.EventBus) Option { return func(s *Source) { s.bus = b } }

// WithLogger sets the logger used for fetch failures
func WithLogger(l *slog.Logger) Option { return func(s *Source) { s.logger = l } }

// New creates a remote source writing into st
func New(st *state.SelectionState, api config.API, opts ...Option) *Source {
	s := &Source{
		api:    api,
		state:  st,
		client: http.DefaultClient,
		bus:    eventbus.NullBus{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinInputLength returns the configured minimum query length
func (s *Source) MinInputLength() int {
	return s.api.MinInputLength
}

// Query supersedes any pending or in-flight query and schedules a fetch for text
func (s *Source) Query(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.stopTimerLocked()

	if utf8.RuneCountInString(text) < s.api.MinInputLength {
		s.cancelInflightLocked()
		s.state.Supersede(func(f *state.Fields) { f.Idle() })
		return
	}

	tok := s.state.Supersede(func(f *state.Fields) { f.BeginLoading() })
	s.timer = time.AfterFunc(s.api.Delay, func() {
		s.fire(tok, text)
	})
}

// Update cancels pending work and commits opts directly
func (s *Source) Update(opts []domain.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()
	s.cancelInflightLocked()
	s.state.Supersede(func(f *state.Fields) { f.Succeed(opts) })
}

// Close stops the debounce timer and aborts the in-flight request.
// Safe to call multiple times.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.cancelInflightLocked()
	s.state.Supersede(nil)
}

func (s *Source) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Source) cancelInflightLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// fire runs when the debounce delay has elapsed
func (s *Source) fire(tok state.Token, text string) {
	s.mu.Lock()
	if s.closed || !s.state.IsCurrent(tok) {
		s.mu.Unlock()
		return
	}
	s.cancelInflightLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.inflight++
	id := s.inflight
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.inflight == id {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	opts, err := s.fetch(ctx, text)
	if ctx.Err() != nil || IsCancellation(err) {
		// Aborted: the superseding query owns the final state
		return
	}
	if err != nil {
		s.fail(tok, text, err)
		return
	}
	if s.state.UpdateIfCurrent(tok, func(f *state.Fields) { f.Succeed(opts) }) {
		s.bus.Publish(domain.StateChangedEvent{Query: text})
	}
}

func (s *Source) fail(tok state.Token, text string, err error) {
	if !s.state.UpdateIfCurrent(tok, func(f *state.Fields) { f.Fail() }) {
		return
	}
	s.logger.Error("remote query failed",
		slog.String("query", text),
		slog.String("error", err.Error()),
	)
	s.bus.Publish(domain.FetchFailedEvent{Query: text, Err: err})
}

func (s *Source) fetch(ctx context.Context, text string) ([]domain.Option, error) {
	req, err := s.buildRequest(ctx, text)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrFetch, resp.StatusCode)
	}

	return s.transform(config.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	})
}

// transform applies the configured result mapper; a panicking mapper counts as a failure
func (s *Source) transform(resp config.Response) (opts []domain.Option, err error) {
	defer func() {
		if r := recover(); r != nil {
			opts = nil
			err = fmt.Errorf("%w: result mapping panicked: %v", domain.ErrFetch, r)
		}
	}()

	if s.api.Result == nil {
		opts, err = domain.DecodeOptions(resp.Body)
	} else {
		opts, err = s.api.Result(resp)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	return opts, nil
}

// queryMethods carry their payload as URL query parameters
var queryMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

func (s *Source) buildRequest(ctx context.Context, text string) (*http.Request, error) {
	endpoint := s.api.URL
	if s.api.URLFunc != nil {
		endpoint = s.api.URLFunc(text)
	}

	payload := s.api.Data
	if s.api.DataFunc != nil {
		payload = s.api.DataFunc(text)
	} else if payload == nil {
		payload = map[string]any{"q": text}
	}

	method := s.api.MethodOrDefault()
	var body io.Reader

	if queryMethods[method] {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid url %q: %w", domain.ErrFetch, endpoint, err)
		}
		q := u.Query()
		for k, v := range payload {
			setParam(q, k, v)
		}
		u.RawQuery = q.Encode()
		endpoint = u.String()
	} else {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request body: %w", domain.ErrFetch, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.api.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func setParam(q url.Values, key string, v any) {
	switch t := v.(type) {
	case nil:
		q.Set(key, "")
	case string:
		q.Set(key, t)
	case []string:
		q.Del(key)
		for _, item := range t {
			q.Add(key, item)
		}
	case []any:
		q.Del(key)
		for _, item := range t {
			q.Add(key, fmt.Sprint(item))
		}
	default:
		q.Set(key, fmt.Sprint(t))
	}
}

// IsCancellation reports whether err only means a superseded request
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
