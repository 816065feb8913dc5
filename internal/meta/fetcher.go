// Package meta fetches web pages and extracts their preview metadata.
package meta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"fliqk/internal/validation"
)

// UserAgent identifies fliqk to the sites it fetches.
const UserAgent = "Mozilla/5.0 (compatible; fliqkbot/1.0; +https://fliqk.to)"

// MaxBodySize caps how much of a page is read.
const MaxBodySize = 2 << 20

// ErrDomainNotFound is returned for any fetch failure: bad URL, DNS failure,
// timeout, refused target or non-2xx status. Callers respond with DOMAIN_NOT_FOUND.
var ErrDomainNotFound = errors.New("domain not found")

// ErrPrivateTarget is returned when a connection would reach a private or
// reserved address, including after a redirect or DNS change.
var ErrPrivateTarget = errors.New("refusing private address")

// Page is a fetched HTML document.
type Page struct {
	URL  string
	HTML string
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	blocked   func(ip net.IP) bool

	// AllowPrivate disables the private-address guard (tests, local development).
	AllowPrivate bool
}

// NewFetcher creates a fetcher with the given timeout. Every dialed address is
// checked, so redirects and re-resolved hosts cannot reach private networks.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = UserAgent
	}
	f := &Fetcher{
		userAgent: userAgent,
		blocked:   validation.IsPrivateIP,
	}

	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
		Control:   f.guardDial,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	f.client = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			if valid, msg := validation.ValidateURL(req.URL.String()); !valid {
				return errors.New(msg)
			}
			return nil
		},
	}
	return f
}

// guardDial runs before each connection with the resolved address.
func (f *Fetcher) guardDial(_, address string, _ syscall.RawConn) error {
	if f.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || f.blocked(ip) {
		return fmt.Errorf("%w %s", ErrPrivateTarget, host)
	}
	return nil
}

// Fetch GETs rawURL and returns its body. Nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target := validation.NormalizeURL(rawURL)

	if valid, msg := validation.ValidateURL(target); !valid {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotFound, msg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomainNotFound, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDomainNotFound, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrDomainNotFound, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDomainNotFound, err)
	}

	return &Page{URL: target, HTML: string(body)}, nil
}
