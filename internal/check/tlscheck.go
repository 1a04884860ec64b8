package check

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/sitewatch/sitewatch/internal/domain"
)

// CertExpiry verifies the leaf certificate of an https target is valid for
// at least MinValidity more. Non-https targets are reported as SKIP.
type CertExpiry struct {
	Target      string
	MinValidity time.Duration
	Timeout     time.Duration
}

func NewCertExpiry(target string, minValidity, timeout time.Duration) *CertExpiry {
	if minValidity <= 0 {
		minValidity = 14 * 24 * time.Hour
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CertExpiry{Target: target, MinValidity: minValidity, Timeout: timeout}
}

func (c *CertExpiry) Name() string     { return "cert-expiry:" + hostOf(c.Target) }
func (c *CertExpiry) Category() string { return "tls" }
func (c *CertExpiry) Critical() bool   { return false }

func (c *CertExpiry) Run(ctx context.Context) (domain.Result, error) {
	res := domain.Result{
		Name:     c.Name(),
		Category: c.Category(),
	}

	u, err := url.Parse(c.Target)
	if err != nil || u.Scheme != "https" {
		res.Status = domain.StatusSkip
		res.Details = "not an https target"
		return res, nil
	}
	port := u.Port()
	if port == "" {
		port = "443"
	}

	start := time.Now()
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.Timeout},
		Config:    &tls.Config{ServerName: u.Hostname()},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(u.Hostname(), port))
	res.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		msg := err.Error()
		res.Status = domain.StatusFail
		res.Details = "tls handshake failed"
		res.Error = &msg
		return res, nil
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		res.Status = domain.StatusFail
		res.Details = "no peer certificate"
		return res, nil
	}

	leaf := state.PeerCertificates[0]
	remaining := time.Until(leaf.NotAfter)
	res.Metrics = map[string]any{"cert_days_left": remaining.Hours() / 24}
	if remaining < c.MinValidity {
		res.Status = domain.StatusFail
		res.Details = fmt.Sprintf("certificate expires %s", leaf.NotAfter.UTC().Format(time.RFC3339))
	} else {
		res.Status = domain.StatusPass
		res.Details = fmt.Sprintf("valid until %s", leaf.NotAfter.UTC().Format(time.RFC3339))
	}
	return res, nil
}
