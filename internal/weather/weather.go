// Package weather looks up current conditions from OpenWeatherMap and
// degrades to a synthetic report whenever the lookup cannot be completed.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xscopehub/mcp-http-server/internal/cache"
	"github.com/xscopehub/mcp-http-server/internal/limiter"
)

// DefaultBaseURL is the OpenWeatherMap current weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

const (
	timestampLayout = "2006-01-02 15:04:05"
	syntheticNote   = "synthetic data: the weather provider could not be reached"
	maxBodyBytes    = 1 << 20
)

var (
	errMissingAPIKey = errors.New("api key not configured")

	syntheticDescriptions = []string{"clear sky", "cloudy", "light rain", "sunny"}
)

// Source tells where a report came from.
type Source string

const (
	SourceProvider  Source = "provider"
	SourceCache     Source = "cache"
	SourceSynthetic Source = "synthetic"
)

// Report is the outcome of a lookup. Degraded is set when Text holds
// synthetic data; Reason then carries the failure that caused it.
type Report struct {
	Text     string
	Source   Source
	Degraded bool
	Reason   string
}

// Observer receives one notification per lookup.
type Observer interface {
	ObserveWeather(source string)
}

// Config configures the upstream provider.
type Config struct {
	APIKey  string
	BaseURL string
	Lang    string
	Units   string
	Timeout time.Duration
}

// Provider performs best-effort weather lookups. It is safe for concurrent use.
type Provider struct {
	apiKey  string
	baseURL string
	lang    string
	units   string
	timeout time.Duration

	http     *http.Client
	cache    *cache.Cache
	limiter  *limiter.Limiter
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	randMu sync.Mutex
	intN   func(n int) int
}

// Option customizes a Provider.
type Option func(*Provider)

// WithHTTPClient replaces the outbound HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.http = c }
}

// WithCache caches successful provider results per city.
func WithCache(c *cache.Cache) Option {
	return func(p *Provider) { p.cache = c }
}

// WithLimiter bounds the rate of outbound calls.
func WithLimiter(l *limiter.Limiter) Option {
	return func(p *Provider) { p.limiter = l }
}

// WithObserver registers a lookup observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(p *Provider) { p.observer = o }
}

// WithLogger sets the logger used for degraded lookups.
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithRand makes synthetic values reproducible.
func WithRand(r *rand.Rand) Option {
	return func(p *Provider) { p.intN = r.IntN }
}

// New creates a Provider.
func New(cfg Config, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: cfg.BaseURL,
		lang:    cfg.Lang,
		units:   cfg.Units,
		timeout: cfg.Timeout,
		logger:  slog.Default(),
		now:     time.Now,
		intN:    rand.IntN,
	}
	if p.baseURL == "" {
		p.baseURL = DefaultBaseURL
	}
	if p.units == "" {
		p.units = "metric"
	}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.http == nil {
		p.http = &http.Client{Timeout: p.timeout}
	}
	return p
}

// Lookup returns the current weather for city. It never fails: any problem
// with the upstream call yields a synthetic report with Degraded set.
func (p *Provider) Lookup(ctx context.Context, city string) Report {
	key := strings.ToLower(strings.TrimSpace(city))
	if p.cache != nil {
		if text, ok := p.cache.Get(key); ok {
			p.observe(SourceCache)
			return Report{Text: text, Source: SourceCache}
		}
	}

	text, err := p.fetch(ctx, city)
	if err != nil {
		p.logger.Warn("weather lookup degraded", "city", city, "error", err)
		p.observe(SourceSynthetic)
		return Report{
			Text:     p.synthetic(city),
			Source:   SourceSynthetic,
			Degraded: true,
			Reason:   err.Error(),
		}
	}

	if p.cache != nil {
		p.cache.Set(key, text)
	}
	p.observe(SourceProvider)
	return Report{Text: text, Source: SourceProvider}
}

func (p *Provider) observe(source Source) {
	if p.observer != nil {
		p.observer.ObserveWeather(string(source))
	}
}

type providerResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type document struct {
	City        string `json:"city"`
	Country     string `json:"country"`
	Temperature string `json:"temperature"`
	FeelsLike   string `json:"feels_like"`
	Humidity    string `json:"humidity"`
	Pressure    string `json:"pressure"`
	Description string `json:"description"`
	WindSpeed   string `json:"wind_speed"`
	Timestamp   string `json:"timestamp"`
	Synthetic   bool   `json:"synthetic,omitempty"`
	Note        string `json:"note,omitempty"`
}

func (p *Provider) fetch(ctx context.Context, city string) (string, error) {
	if p.apiKey == "" {
		return "", errMissingAPIKey
	}
	if p.limiter != nil {
		if err := p.limiter.Allow(); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", city)
	q.Set("appid", p.apiKey)
	q.Set("units", p.units)
	if p.lang != "" {
		q.Set("lang", p.lang)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		// the url carries the api key
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("request provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider status %d", resp.StatusCode)
	}

	var data providerResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decode provider response: %w", err)
	}
	if len(data.Weather) == 0 {
		return "", errors.New("provider response has no weather entries")
	}

	text := render(document{
		City:        data.Name,
		Country:     data.Sys.Country,
		Temperature: formatFloat(data.Main.Temp) + "°C",
		FeelsLike:   formatFloat(data.Main.FeelsLike) + "°C",
		Humidity:    formatFloat(data.Main.Humidity) + "%",
		Pressure:    formatFloat(data.Main.Pressure) + " hPa",
		Description: data.Weather[0].Description,
		WindSpeed:   formatFloat(data.Wind.Speed) + " m/s",
		Timestamp:   p.now().Format(timestampLayout),
	})
	return text, nil
}

func (p *Provider) synthetic(city string) string {
	p.randMu.Lock()
	doc := document{
		City:        city,
		Country:     "JP",
		Temperature: fmt.Sprintf("%d°C", 15+p.intN(20)),
		FeelsLike:   fmt.Sprintf("%d°C", 17+p.intN(20)),
		Humidity:    fmt.Sprintf("%d%%", 40+p.intN(40)),
		Pressure:    fmt.Sprintf("%d hPa", 1000+p.intN(50)),
		Description: syntheticDescriptions[p.intN(len(syntheticDescriptions))],
		WindSpeed:   fmt.Sprintf("%d m/s", p.intN(10)),
		Timestamp:   p.now().Format(timestampLayout),
		Synthetic:   true,
		Note:        syntheticNote,
	}
	p.randMu.Unlock()

	return render(doc)
}

// render cannot fail: document holds only strings and a bool.
func render(doc document) string {
	out, _ := json.MarshalIndent(doc, "", "  ")
	return string(out)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
