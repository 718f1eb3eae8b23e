// Package resolver builds the initial view of a transfer from the best source
// available: the backend, the session's last_transfer hand-off, the query
// string, or a placeholder.
package resolver

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"transfer-status-backend/internal/api"
	"transfer-status-backend/internal/cache"
	"transfer-status-backend/internal/format"
	"transfer-status-backend/internal/models"
	"transfer-status-backend/internal/normalize"
	"transfer-status-backend/internal/utils"
)

// Source names where a view's summary came from.
type Source string

const (
	SourceLive        Source = "live"
	SourceCache       Source = "cache"
	SourceQuery       Source = "query"
	SourcePlaceholder Source = "placeholder"
)

// FetchFailedNotice is shown when the backend could not be reached for the initial load.
const FetchFailedNotice = "We couldn't load the latest status. Showing the details we have."

// NotFoundNotice is shown when the backend does not know the requested reference.
const NotFoundNotice = "We couldn't find this transfer yet. Showing the details we have."

// NoticeFor picks the notice shown after a failed live fetch.
func NoticeFor(err error) string {
	if utils.GetErrorType(err) == utils.ErrorTypeNotFound {
		return NotFoundNotice
	}
	return FetchFailedNotice
}

// Config holds resolver configuration.
type Config struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// DefaultConfig returns default resolver configuration.
func DefaultConfig() Config {
	return Config{FetchTimeout: 8 * time.Second}
}

// Request identifies what a page is asking for.
type Request struct {
	Ref     string
	Query   url.Values
	Session string
}

// Reference returns Ref, or the "ref" query parameter when Ref is empty.
func (req Request) Reference() string {
	if ref := strings.TrimSpace(req.Ref); ref != "" {
		return ref
	}
	if req.Query != nil {
		return strings.TrimSpace(req.Query.Get("ref"))
	}
	return ""
}

// View is a complete, renderable answer. Summary is never nil.
type View struct {
	Summary *models.TransferSummary `json:"summary"`
	Source  Source                  `json:"source"`
	Notice  string                  `json:"notice,omitempty"`
	Display format.Display          `json:"display"`
}

// Observer is told which source served each load.
type Observer interface {
	Resolved(source Source)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(r *Resolver) { r.normalizer = n }
}

// Resolver runs the fallback chain.
type Resolver struct {
	config     Config
	fetcher    api.Fetcher
	last       *cache.LastTransfer
	normalizer *normalize.Normalizer
	observer   Observer
	logger     *utils.Logger
}

// New creates a Resolver. fetcher and last may be nil to skip those sources.
func New(fetcher api.Fetcher, last *cache.LastTransfer, config Config, opts ...Option) *Resolver {
	r := &Resolver{
		config:     config,
		fetcher:    fetcher,
		last:       last,
		normalizer: normalize.New(),
		logger:     utils.ResolverLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load never fails: each source that cannot answer hands over to the next.
func (r *Resolver) Load(ctx context.Context, req Request) View {
	ref := req.Reference()
	if ref != "" && r.fetcher != nil {
		raw, err := r.fetch(ctx, ref)
		if err == nil {
			return r.view(r.normalizer.NormalizeWith(raw, normalize.Defaults{ReferenceID: ref}), SourceLive, "")
		}
		r.logger.Warn("initial fetch of %s failed (%s): %v", ref, utils.GetErrorCode(err), err)
		return r.Fallback(ctx, req, NoticeFor(err))
	}
	return r.Fallback(ctx, req, "")
}

// Fallback runs the chain after the live source: last_transfer, query string,
// placeholder.
func (r *Resolver) Fallback(ctx context.Context, req Request, notice string) View {
	defaults := normalize.Defaults{ReferenceID: req.Reference()}

	if r.last != nil {
		if raw, ok := r.last.Load(ctx, req.Session); ok {
			return r.view(r.normalizer.NormalizeWith(raw, defaults), SourceCache, notice)
		}
	}

	if req.Query != nil && normalize.HasTransferFields(req.Query) {
		raw, err := json.Marshal(normalize.QueryObject(req.Query))
		if err == nil {
			return r.view(r.normalizer.NormalizeWith(raw, defaults), SourceQuery, notice)
		}
	}

	return r.view(r.normalizer.Placeholder(defaults), SourcePlaceholder, notice)
}

// Live wraps a polled summary in a view.
func (r *Resolver) Live(s *models.TransferSummary, notice string) View {
	return View{
		Summary: s,
		Source:  SourceLive,
		Notice:  notice,
		Display: format.DisplayOf(*s),
	}
}

func (r *Resolver) fetch(ctx context.Context, ref string) ([]byte, error) {
	if r.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.FetchTimeout)
		defer cancel()
	}
	return r.fetcher.FetchTransfer(ctx, models.AuthoritativeRef(ref))
}

func (r *Resolver) view(s models.TransferSummary, source Source, notice string) View {
	if r.observer != nil {
		r.observer.Resolved(source)
	}
	r.logger.Debug("resolved %s from %s", s.ReferenceID, source)
	return View{
		Summary: &s,
		Source:  source,
		Notice:  notice,
		Display: format.DisplayOf(s),
	}
}
