// Package backoffice reads order and product snapshots from the back-office
// REST API.
package backoffice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the page size requested when listing collections.
	DefaultPageSize = 100
	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 512
)

// ErrUnauthorized is returned when the back-office rejects the session token.
var ErrUnauthorized = errors.New("backoffice: unauthorized")

// StatusError is returned for non-2xx responses other than 401 and 403.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backoffice: status %d", e.Code)
	}
	return fmt.Sprintf("backoffice: status %d: %s", e.Code, e.Body)
}

// HTTPStatus returns the status the back-office answered with.
func (e *StatusError) HTTPStatus() int {
	return e.Code
}

// RequestError is returned when listing a collection fails. It wraps the
// cause with the page that failed.
type RequestError struct {
	Path string
	Page int
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("backoffice: %s page %d: %v", e.Path, e.Page, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Session supplies the bearer token of the current back-office session.
type Session interface {
	Token(ctx context.Context) (string, error)
}

// StaticSession is a Session with a fixed token. An empty token sends no
// Authorization header.
type StaticSession string

// Token implements Session.
func (s StaticSession) Token(context.Context) (string, error) {
	return string(s), nil
}

// Client lists back-office collections page by page.
type Client struct {
	base     *url.URL
	session  Session
	http     *http.Client
	pageSize int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. The default one is instrumented with
// otelhttp.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPageSize sets the page size of list requests.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTimeout sets the timeout of a single request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a Client for the back-office at baseURL, which is the origin
// serving /api.
func New(baseURL string, session Session, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}
	if session == nil {
		session = StaticSession("")
	}

	c := &Client{
		base:    base,
		session: session,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   DefaultTimeout,
		},
		pageSize: DefaultPageSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Ping requests a single product to check that the back-office is reachable
// and accepts the session.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/products", 1, 1)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// pagination is the paging block of a list response.
type pagination struct {
	Page  int
	Limit int
	Total int
	Pages int
}

func (p *pagination) decode(d *jx.Decoder) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "page":
			p.Page, err = d.Int()
		case "limit":
			p.Limit, err = d.Int()
		case "total":
			p.Total, err = d.Int()
		case "pages":
			p.Pages, err = d.Int()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
}

// listAll walks every page of the collection at path. decode consumes the
// data array of one page.
func listAll(ctx context.Context, c *Client, path string, decode func(d *jx.Decoder) (int, error)) error {
	lg := zctx.From(ctx)
	for page := 1; ; page++ {
		p, n, err := c.page(ctx, path, page, decode)
		if err != nil {
			return &RequestError{Path: path, Page: page, Err: err}
		}
		lg.Debug("Fetched page",
			zap.String("path", path),
			zap.Int("page", page),
			zap.Int("pages", p.Pages),
			zap.Int("records", n),
		)
		if n == 0 || page >= p.Pages {
			return nil
		}
	}
}

func (c *Client) page(ctx context.Context, path string, page int, decode func(d *jx.Decoder) (int, error)) (pagination, int, error) {
	resp, err := c.get(ctx, path, page, c.pageSize)
	if err != nil {
		return pagination{}, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	var (
		p pagination
		n int
	)
	d := jx.Decode(resp.Body, 4096)
	switch d.Next() {
	case jx.Array:
		// Unpaginated deployments return the bare collection.
		n, err = decode(d)
		return pagination{Page: 1, Pages: 1, Total: n}, n, err
	case jx.Object:
		err = d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "data":
				if d.Next() == jx.Null {
					return d.Null()
				}
				var err error
				n, err = decode(d)
				return err
			case "pagination":
				return p.decode(d)
			default:
				return d.Skip()
			}
		})
		if err != nil {
			return pagination{}, 0, errors.Wrap(err, "decode response")
		}
		return p, n, nil
	default:
		return pagination{}, 0, errors.Errorf("unexpected %s response", d.Next())
	}
}

func (c *Client) get(ctx context.Context, path string, page, limit int) (*http.Response, error) {
	u := *c.base
	u.Path += path
	u.RawQuery = url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	token, err := c.session.Token(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "session token")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.Wrapf(ErrUnauthorized, "status %d", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}
