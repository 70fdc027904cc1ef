package jupiterfetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout      = 90 * time.Second
	DefaultMaxBodyBytes = 16 << 20
)

var errBodyTooLarge = errors.New("response body exceeds size limit")

type ClientOptions struct {
	// Timeout bounds connecting and reading a single page.
	Timeout   time.Duration
	UserAgent string

	// RequestsPerSecond limits the request rate, zero disables the limit.
	RequestsPerSecond float64
	Burst             int

	MaxBodyBytes int64

	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
	Logger    *logrus.Entry
}

// Client fetches portal pages and parses them into documents. Every failure
// is returned as an *HTTPError, *NetworkError or *UnknownError.
type Client struct {
	hc           http.Client
	userAgent    string
	limiter      *rate.Limiter
	maxBodyBytes int64
	logger       *logrus.Entry
}

func NewClient(options ClientOptions) *Client {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.MaxBodyBytes <= 0 {
		options.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if options.Logger == nil {
		options.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	c := &Client{
		hc:           http.Client{Timeout: options.Timeout, Transport: options.Transport},
		userAgent:    options.UserAgent,
		maxBodyBytes: options.MaxBodyBytes,
		logger:       options.Logger,
	}
	if options.RequestsPerSecond > 0 {
		burst := options.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), burst)
	}
	return c
}

func (c *Client) Fetch(ctx context.Context, url string) (doc *goquery.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, &UnknownError{URL: url, Cause: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"url": url,
				"err": err,
			}).Warn("page fetch failed")
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{URL: url, Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &UnknownError{URL: url, Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := c.readBody(resp)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return nil, &UnknownError{URL: url, Cause: err}
		}
		return nil, &NetworkError{URL: url, Cause: err}
	}

	// The portal serves ISO-8859-1 pages, decode according to the header or
	// the page's meta tags.
	reader, err := charset.NewReader(bytes.NewReader(body), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, &UnknownError{URL: url, Cause: fmt.Errorf("failed to decode charset: %w", err)}
	}
	doc, err = goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, &UnknownError{URL: url, Cause: fmt.Errorf("failed to parse document: %w", err)}
	}
	doc.Url = req.URL
	return doc, nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		fl := flate.NewReader(resp.Body)
		defer fl.Close()
		reader = fl
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(io.LimitReader(reader, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fmt.Errorf("%w of %d bytes", errBodyTooLarge, c.maxBodyBytes)
	}
	return body, nil
}
