package check

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// Availability probes a site with a plain GET and passes on any 2xx/3xx
// status. Transport errors become FAIL results, never run-fatal errors.
type Availability struct {
	Target   string
	Client   *http.Client
	critical bool
}

func NewAvailability(target string, critical bool, timeout time.Duration) *Availability {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Availability{
		Target:   target,
		Client:   &http.Client{Timeout: timeout},
		critical: critical,
	}
}

func (a *Availability) Name() string     { return "availability:" + hostOf(a.Target) }
func (a *Availability) Category() string { return "availability" }
func (a *Availability) Critical() bool   { return a.critical }

func (a *Availability) Run(ctx context.Context) (domain.Result, error) {
	res := domain.Result{
		Name:     a.Name(),
		Category: a.Category(),
		Critical: a.critical,
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.Target, nil)
	if err != nil {
		msg := err.Error()
		res.Status = domain.StatusFail
		res.Error = &msg
		return res, nil
	}

	resp, err := a.Client.Do(req)
	latency := time.Since(start)
	res.DurationMS = latency.Milliseconds()
	if err != nil {
		msg := err.Error()
		res.Status = domain.StatusFail
		res.Details = "request failed"
		res.Error = &msg
		return res, nil
	}
	defer resp.Body.Close()

	res.Metrics = map[string]any{
		"http_status": resp.StatusCode,
		"latency_ms":  float64(latency.Milliseconds()),
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		res.Status = domain.StatusPass
		res.Details = resp.Status
	} else {
		res.Status = domain.StatusFail
		res.Details = resp.Status
	}
	return res, nil
}

// hostOf pulls the hostname from a URL string for display names.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
