package core

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Fuabioo/gitdl/internal/errors"
)

// FetcherOptions configures the upstream HTTP client.
type FetcherOptions struct {
	ConnectTimeout     time.Duration
	Timeout            time.Duration
	DownloadTimeout    time.Duration
	InsecureSkipVerify bool
	UserAgent          string
}

// FetcherOptionsFromConfig maps the http section of cfg.
func FetcherOptionsFromConfig(cfg *Config) FetcherOptions {
	return FetcherOptions{
		ConnectTimeout:     cfg.HTTP.ConnectTimeout,
		Timeout:            cfg.HTTP.Timeout,
		DownloadTimeout:    cfg.HTTP.DownloadTimeout,
		InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
		UserAgent:          cfg.HTTP.UserAgent,
	}
}

// ProgressFunc returns a writer that observes downloaded bytes. total is the
// advertised length, or -1 when upstream does not send one.
type ProgressFunc func(total int64) io.Writer

// Fetcher checks and downloads upstream archives. Redirects are followed.
type Fetcher struct {
	head      *http.Client
	get       *http.Client
	userAgent string
}

// NewFetcher builds a Fetcher. Zero timeouts fall back to the defaults.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = DefaultDownloadTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		// Controlled by http.insecure_skip_verify.
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}, //nolint:gosec
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Fetcher{
		head:      &http.Client{Transport: transport, Timeout: opts.Timeout},
		get:       &http.Client{Transport: transport, Timeout: opts.DownloadTimeout},
		userAgent: opts.UserAgent,
	}
}

// Exists issues a HEAD request for the project's archive URL. Any failure,
// whether a network error or a non-2xx final status, is NOT_FOUND.
func (f *Fetcher) Exists(ctx context.Context, id *Identity) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, id.ArchiveURL, nil)
	if err != nil {
		return errors.ProjectNotFound(id.ProjectName, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.head.Do(req)
	if err != nil {
		return errors.ProjectNotFound(id.ProjectName, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.ProjectNotFound(id.ProjectName, fmt.Errorf("upstream returned %s", resp.Status))
	}
	return nil
}

// Download writes the project's archive into dst from offset zero, replacing
// any previous contents, and returns the number of bytes written. On failure
// dst is truncated so no partial archive is left behind.
func (f *Fetcher) Download(ctx context.Context, id *Identity, dst *os.File, progress ProgressFunc) (n int64, err error) {
	defer func() {
		if err != nil {
			_ = dst.Truncate(0)
			err = errors.TransferFailed(id.ProjectName, err)
		}
	}()

	if err := dst.Truncate(0); err != nil {
		return 0, err
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, id.ArchiveURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.get.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("upstream returned %s", resp.Status)
	}

	var w io.Writer = dst
	if progress != nil {
		if p := progress(resp.ContentLength); p != nil {
			w = io.MultiWriter(dst, p)
		}
	}

	n, err = io.Copy(w, resp.Body)
	if err != nil {
		return n, err
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, io.ErrUnexpectedEOF
	}
	if err := dst.Sync(); err != nil {
		return n, err
	}
	return n, nil
}
