// Package download fetches random wallpapers into the local cache directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dixieflatline76/Canvaz/config"
	"github.com/dixieflatline76/Canvaz/pkg/decode"
	"github.com/dixieflatline76/Canvaz/pkg/scanner"
	"github.com/dixieflatline76/Canvaz/util/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultURL serves a random 1920x1080 photo, redirecting to the image itself.
const DefaultURL = "https://picsum.photos/1920/1080"

// MaxImageBytes caps the size of a single download.
const MaxImageBytes = 50 << 20

const (
	// HTTPClientRequestTimeout is the total time limit for a single download.
	HTTPClientRequestTimeout = 60 * time.Second
	// HTTPClientDialerTimeout is the timeout for establishing a TCP connection.
	HTTPClientDialerTimeout = 15 * time.Second
	// HTTPClientTLSHandshakeTimeout is the time limit for the TLS handshake.
	HTTPClientTLSHandshakeTimeout = 10 * time.Second
	// HTTPClientResponseHeaderTimeout is the time limit for receiving response headers.
	HTTPClientResponseHeaderTimeout = 15 * time.Second
	// HTTPClientKeepAlive is the duration for TCP keep-alive probes.
	HTTPClientKeepAlive = 30 * time.Second
)

// MinInterval is the minimum spacing between downloads.
const MinInterval = 2 * time.Second

var (
	// ErrBadStatus is returned for non-200 responses.
	ErrBadStatus = errors.New("unexpected response status")
	// ErrTooLarge is returned when a response exceeds MaxImageBytes.
	ErrTooLarge = errors.New("download exceeds size limit")
)

// UserAgentTransport wraps an http.RoundTripper and adds a User-Agent header.
type UserAgentTransport struct {
	http.RoundTripper
	UserAgent string
}

// RoundTrip executes a single HTTP transaction, adding the User-Agent header.
func (t *UserAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", t.UserAgent)
	return t.RoundTripper.RoundTrip(clonedReq)
}

// UserAgent identifies this application to remote servers.
func UserAgent() string {
	version := config.AppVersion
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s/%s", config.AppName, version)
}

// NewHTTPClient returns a client with conservative timeouts that identifies
// itself as this application.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: HTTPClientRequestTimeout,
		Transport: &UserAgentTransport{
			RoundTripper: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   HTTPClientDialerTimeout,
					KeepAlive: HTTPClientKeepAlive,
				}).DialContext,
				ResponseHeaderTimeout: HTTPClientResponseHeaderTimeout,
				TLSHandshakeTimeout:   HTTPClientTLSHandshakeTimeout,
			},
			UserAgent: UserAgent(),
		},
	}
}

// Client downloads random wallpapers into a directory.
type Client struct {
	url     string
	dir     string
	http    *http.Client
	limiter *rate.Limiter
	dec     scanner.Decoder
	bound   image.Point
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the source URL.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter overrides the request throttle.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithDecoder overrides the thumbnail decoder.
func WithDecoder(dec scanner.Decoder) Option {
	return func(c *Client) { c.dec = dec }
}

// WithThumbnailSize overrides the thumbnail bound.
func WithThumbnailSize(bound image.Point) Option {
	return func(c *Client) { c.bound = bound }
}

// New creates a Client that saves into dir.
func New(dir string, opts ...Option) *Client {
	c := &Client{
		url:     DefaultURL,
		dir:     dir,
		http:    NewHTTPClient(),
		limiter: rate.NewLimiter(rate.Every(MinInterval), 1),
		dec:     decode.New(),
		bound:   scanner.DefaultThumbnailSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Random downloads one image and returns it as a scan result, thumbnail
// included. The file is only kept when it decodes.
func (c *Client) Random(ctx context.Context) (scanner.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return scanner.Result{}, fmt.Errorf("waiting to download: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return scanner.Result{}, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return scanner.Result{}, fmt.Errorf("downloading %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scanner.Result{}, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	name := fmt.Sprintf("wallpaper_%d_%s.jpg", c.now().Unix(), uuid.NewString()[:8])
	path := filepath.Join(c.dir, name)
	if err := c.save(resp.Body, path); err != nil {
		return scanner.Result{}, err
	}

	thumb, err := c.dec.DecodeThumbnail(path, c.bound)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Printf("Failed to remove undecodable download %s: %v", path, rmErr)
		}
		return scanner.Result{}, fmt.Errorf("decoding download: %w", err)
	}

	log.Printf("Downloaded %s", path)
	return scanner.Result{Path: path, Thumbnail: thumb, Name: name}, nil
}

// save writes body to path through a temporary file so a partial download
// never shows up in a scan.
func (c *Client) save(body io.Reader, path string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(body, MaxImageBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing download: %w", err)
	}
	if n > MaxImageBytes {
		return ErrTooLarge
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving download: %w", err)
	}
	return nil
}
