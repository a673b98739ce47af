package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/pagespeedonline/v5"

	"github.com/seoauditor/seoauditor/pkg/metrics"
)

// Field-data metric keys in the PageSpeed loading experience.
const (
	metricLCP = "LARGEST_CONTENTFUL_PAINT_MS"
	metricCLS = "CUMULATIVE_LAYOUT_SHIFT_SCORE"
	metricFID = "FIRST_INPUT_DELAY_MS"
)

// PageSpeedResult holds the Core Web Vitals of one URL. A nil field means
// PageSpeed had no data for it.
type PageSpeedResult struct {
	LCP              *float64 `json:"lcp"` // ms
	CLS              *float64 `json:"cls"`
	FID              *float64 `json:"fid"` // ms
	PerformanceScore *float64 `json:"performance_score"` // 0-100
}

// PageSpeedConfig configures a PageSpeedClient.
type PageSpeedConfig struct {
	APIKey   string
	Strategy string // "mobile" unless set

	// RequestsPerSecond throttles outbound calls; zero disables throttling.
	RequestsPerSecond float64
	Burst             int

	// CacheTTL of zero disables the result cache.
	CacheTTL  time.Duration
	CacheSize int

	// Options are appended to the client options, e.g. to override the
	// endpoint in tests.
	Options []option.ClientOption
}

// PageSpeedClient runs PageSpeed Insights performance audits.
type PageSpeedClient struct {
	svc      *pagespeedonline.Service
	strategy string
	limiter  *rate.Limiter
	cache    *resultCache
}

// NewPageSpeedClient creates a PageSpeed client.
func NewPageSpeedClient(ctx context.Context, cfg PageSpeedConfig) (*PageSpeedClient, error) {
	var opts []option.ClientOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}
	opts = append(opts, cfg.Options...)

	svc, err := pagespeedonline.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pagespeed service: %w", err)
	}

	c := &PageSpeedClient{svc: svc, strategy: cfg.Strategy}
	if c.strategy == "" {
		c.strategy = "mobile"
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.CacheTTL > 0 {
		c.cache = newResultCache(cfg.CacheSize, cfg.CacheTTL, nil)
	}
	return c, nil
}

// Fetch returns the performance metrics of pageURL. Failures are returned
// as *UpstreamError.
func (c *PageSpeedClient) Fetch(ctx context.Context, pageURL string) (*PageSpeedResult, error) {
	if c.cache != nil {
		if res := c.cache.get(pageURL); res != nil {
			return res, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, upstream("pagespeed", err)
		}
	}

	resp, err := c.svc.Pagespeedapi.Runpagespeed(pageURL).
		Category("performance").
		Strategy(c.strategy).
		Context(ctx).
		Do()
	if err != nil {
		return nil, upstream("pagespeed", err)
	}

	res := parsePageSpeed(resp)
	if c.cache != nil {
		c.cache.put(pageURL, res)
	}
	return res, nil
}

func parsePageSpeed(resp *pagespeedonline.PagespeedApiPagespeedResponseV5) *PageSpeedResult {
	res := &PageSpeedResult{}
	if resp == nil {
		return res
	}

	if le := resp.LoadingExperience; le != nil {
		if m, ok := le.Metrics[metricLCP]; ok {
			res.LCP = metrics.Float(float64(m.Percentile))
		}
		// CLS percentiles are reported multiplied by 100.
		if m, ok := le.Metrics[metricCLS]; ok {
			res.CLS = metrics.Float(float64(m.Percentile) / 100)
		}
		if m, ok := le.Metrics[metricFID]; ok {
			res.FID = metrics.Float(float64(m.Percentile))
		}
	}

	if lr := resp.LighthouseResult; lr != nil && lr.Categories != nil && lr.Categories.Performance != nil {
		if score, ok := lr.Categories.Performance.Score.(float64); ok {
			res.PerformanceScore = metrics.Float(score * 100)
		}
	}
	return res
}
