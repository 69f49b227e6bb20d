// Package nbastats is the HTTP client of the stats provider. It fetches the
// defensive dashboards and the player index one season at a time.
package nbastats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/defscout/internal/adapters/cache"
	"github.com/okian/defscout/internal/domain/model"
	"github.com/okian/defscout/pkg/logger"
	"github.com/okian/defscout/pkg/metrics"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Default client configuration constants.
const (
	DefaultBaseURL = "https://stats.nba.com/stats"

	defaultTimeout         = 30 * time.Second
	defaultRPS             = 1
	defaultBurst           = 1
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = time.Minute
	maxBodyBytes           = 32 << 20

	userAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer     = "https://www.nba.com/"
	cachePrefix = "nbastats"
)

// Client fetches provider tables. It is safe for concurrent use.
type Client struct {
	baseURL         string
	http            *http.Client
	timeout         time.Duration
	rps             float64
	burst           int
	breakerFailures uint32
	breakerTimeout  time.Duration
	cache           cache.Cache
	cacheTTL        time.Duration
	log             logger.Logger

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:         DefaultBaseURL,
		http:            &http.Client{},
		timeout:         defaultTimeout,
		rps:             defaultRPS,
		burst:           defaultBurst,
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("nbastats")
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	c.limiter = rate.NewLimiter(rate.Limit(c.rps), c.burst)
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nbastats",
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("circuit", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			_ = metrics.UpdateBreakerState(breakerGauge(to))
		},
	})
	return c
}

// General fetches the per-game defense dashboard of season.
func (c *Client) General(ctx context.Context, season string) (model.RawTable, error) {
	return c.table(ctx, "general", EndpointPlayerStats, generalParams(season), season)
}

// Tracking fetches one tracking-defense category of season.
func (c *Client) Tracking(ctx context.Context, season string, category DefenseCategory) (model.RawTable, error) {
	return c.table(ctx, trackingName(category), EndpointPTDefend, trackingParams(season, category), season)
}

// Players fetches the all-time player index and returns canonical names.
func (c *Client) Players(ctx context.Context, season string) ([]model.PlayerIdentity, error) {
	body, err := c.get(ctx, EndpointAllPlayers, playersParams(season))
	if err != nil {
		return nil, err
	}
	t, err := decodeTable("players", body)
	if err != nil {
		return nil, err
	}
	out := make([]model.PlayerIdentity, 0, len(t.Rows))
	for _, r := range t.Rows {
		id, ok := r.ID("PERSON_ID")
		if !ok {
			continue
		}
		out = append(out, model.PlayerIdentity{PlayerID: id, Name: r.String("DISPLAY_FIRST_LAST")})
	}
	return out, nil
}

func (c *Client) table(ctx context.Context, name string, ep Endpoint, params url.Values, season string) (model.RawTable, error) {
	body, err := c.get(ctx, ep, params)
	if err != nil {
		return model.RawTable{}, err
	}
	t, err := decodeTable(name, body)
	if err != nil {
		return model.RawTable{}, err
	}
	return tagSeason(t, season), nil
}

// get returns the body of a successful request, from the cache when present.
func (c *Client) get(ctx context.Context, ep Endpoint, params url.Values) ([]byte, error) {
	u := c.baseURL + "/" + string(ep) + "?" + params.Encode()
	key := cache.ProviderKey(cachePrefix, u)
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, key)
		if err != nil {
			c.log.Warn(ctx, "cache read failed", logger.String("backend", c.cache.Name()), logger.Error(err))
		}
		if ok {
			c.log.Debug(ctx, "provider cache hit", logger.String("endpoint", string(ep)))
			return body, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, ep, u)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrBreakerOpen, ep)
		}
		return nil, err
	}
	body, _ := res.([]byte)

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL); err != nil {
			c.log.Warn(ctx, "cache write failed", logger.String("backend", c.cache.Name()), logger.Error(err))
		}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, ep Endpoint, u string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", referer)
	req.Header.Set("Origin", strings.TrimSuffix(referer, "/"))
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(string(ep), "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstream, ep, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	metrics.RecordProviderRequest(string(ep), strconv.Itoa(resp.StatusCode), elapsed.Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", ErrUpstream, ep, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, ep, resp.StatusCode)
	}
	c.log.Debug(ctx, "provider request finished",
		logger.String("endpoint", string(ep)),
		logger.Duration("elapsed", elapsed),
		logger.Int("bytes", len(body)),
	)
	return body, nil
}

// State reports the circuit breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func trackingName(category DefenseCategory) string {
	switch category {
	case LessThan6Ft:
		return "less_than_6ft"
	case LessThan10Ft:
		return "less_than_10ft"
	case ThreePointer:
		return "three_point"
	default:
		return strings.ToLower(strings.ReplaceAll(string(category), " ", "_"))
	}
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}
