package prices

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/siad-agro/siad-api/internal/fallback"
)

// ErrUnavailable means no quote could be produced before the deadline.
var ErrUnavailable = errors.New("prices unavailable")

type entry struct {
	result    fallback.Result[Quote]
	expiresAt time.Time
}

type Options struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	Client       *http.Client
	Logger       *zap.Logger
	Fallbacks    *prometheus.CounterVec // label: quote
}

type Service struct {
	providers []Provider
	opts      Options
	now       func() time.Time

	mu    sync.RWMutex
	cache map[string]entry
}

func NewService(providers []Provider, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 3 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.FetchTimeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{providers: providers, opts: opts, now: time.Now, cache: map[string]entry{}}
}

// Board groups quotes the way clients read them.
type Board struct {
	Soybean         map[string]fallback.Result[Quote] `json:"soybean"`
	Fertilizer      map[string]fallback.Result[Quote] `json:"fertilizer"`
	Freight         *fallback.Result[Quote]           `json:"freight,omitempty"`
	CacheTTLSeconds int                               `json:"cache_ttl_seconds"`
}

// Commodities lists the top-level groups holding at least one quote.
func (b Board) Commodities() []string {
	var out []string
	if len(b.Soybean) > 0 {
		out = append(out, "soybean")
	}
	if len(b.Fertilizer) > 0 {
		out = append(out, "fertilizer")
	}
	if b.Freight != nil {
		out = append(out, "freight")
	}
	return out
}

// Get returns the quote stored under a dotted key such as "soybean.spot".
func (b Board) Get(key string) (fallback.Result[Quote], bool) {
	group, name, _ := strings.Cut(key, ".")
	switch group {
	case "soybean":
		r, ok := b.Soybean[name]
		return r, ok
	case "fertilizer":
		r, ok := b.Fertilizer[name]
		return r, ok
	case "freight":
		if b.Freight != nil {
			return *b.Freight, true
		}
	}
	return fallback.Result[Quote]{}, false
}

// Fresh counts the quotes served live or from cache.
func (b Board) Fresh() int {
	n := 0
	count := func(r fallback.Result[Quote]) {
		if !r.IsFallback() {
			n++
		}
	}
	for _, r := range b.Soybean {
		count(r)
	}
	for _, r := range b.Fertilizer {
		count(r)
	}
	if b.Freight != nil {
		count(*b.Freight)
	}
	return n
}

// Current resolves every provider concurrently. Live quotes are cached for the TTL;
// fallback quotes are not, so the next call retries the upstream.
func (s *Service) Current(ctx context.Context) (Board, error) {
	results := make([]fallback.Result[Quote], len(s.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.providers {
		g.Go(func() error {
			results[i] = s.quote(gctx, p)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Board{}, errors.Join(ErrUnavailable, err)
	}

	b := Board{
		Soybean:         map[string]fallback.Result[Quote]{},
		Fertilizer:      map[string]fallback.Result[Quote]{},
		CacheTTLSeconds: int(s.opts.TTL / time.Second),
	}
	for i, p := range s.providers {
		group, name, _ := strings.Cut(p.Key, ".")
		r := results[i]
		switch group {
		case "soybean":
			b.Soybean[name] = r
		case "fertilizer":
			b.Fertilizer[name] = r
		case "freight":
			b.Freight = &r
		}
	}
	if len(b.Commodities()) == 0 {
		return Board{}, ErrUnavailable
	}
	return b, nil
}

func (s *Service) quote(ctx context.Context, p Provider) fallback.Result[Quote] {
	s.mu.RLock()
	e, ok := s.cache[p.Key]
	s.mu.RUnlock()
	if ok && s.now().Before(e.expiresAt) {
		return fallback.Cached(e.result)
	}

	fctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	q, err := p.fetch(fctx, s.opts.Client)
	if err != nil {
		if !errors.Is(err, errNotConfigured) {
			s.opts.Logger.Warn("price upstream failed", zap.String("quote", p.Key), zap.Error(err))
		}
		if s.opts.Fallbacks != nil {
			s.opts.Fallbacks.WithLabelValues(p.Key).Inc()
		}
		static := p.Static
		static.Timestamp = s.now().UTC().Format(time.RFC3339)
		return fallback.Fallback(static, err.Error())
	}

	r := fallback.Live(q)
	s.mu.Lock()
	s.cache[p.Key] = entry{result: r, expiresAt: s.now().Add(s.opts.TTL)}
	s.mu.Unlock()
	return r
}

type RefreshResult struct {
	Status             string   `json:"status"`
	UpdatedCommodities []string `json:"updated_commodities"`
	LiveQuotes         []string `json:"live_quotes"`
	Timestamp          string   `json:"timestamp"`
}

// Refresh drops the cache and fetches every quote again.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	s.mu.Lock()
	s.cache = map[string]entry{}
	s.mu.Unlock()

	b, err := s.Current(ctx)
	if err != nil {
		return RefreshResult{}, err
	}
	live := []string{}
	for _, p := range s.providers {
		if r, ok := b.Get(p.Key); ok && !r.IsFallback() {
			live = append(live, p.Key)
		}
	}
	sort.Strings(live)
	return RefreshResult{
		Status:             "success",
		UpdatedCommodities: b.Commodities(),
		LiveQuotes:         live,
		Timestamp:          s.now().UTC().Format(time.RFC3339),
	}, nil
}
