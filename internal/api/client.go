package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	HeaderRequestID = "X-Request-ID"
)

// Interceptor observes every call. BeforeSend runs before transmission and
// can abort it; AfterReceive runs after receipt on success and on failure
// and returns the error the caller will see.
type Interceptor interface {
	BeforeSend(ctx context.Context, req *http.Request) error
	AfterReceive(ctx context.Context, req *http.Request, resp *Response, err error) error
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded unless RawBody is set.
	Body    any
	RawBody io.Reader
	Header  http.Header
}

type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type Client struct {
	baseURL      string
	http         *http.Client
	headers      http.Header
	interceptors []Interceptor
	log          *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client; its Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

func WithInterceptor(i Interceptor) Option {
	return func(c *Client) {
		c.interceptors = append(c.interceptors, i)
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	const op = "api.New"

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: base url %q must be absolute", op, baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   20,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				ForceAttemptHTTP2:     true,
			},
			Timeout: DefaultTimeout,
		},
		headers: http.Header{
			"Content-Type": []string{"application/json"},
			"Accept":       []string{"application/json"},
		},
		log: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Use appends interceptors. It must be called before the client is shared.
func (c *Client) Use(interceptors ...Interceptor) {
	c.interceptors = append(c.interceptors, interceptors...)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	for _, i := range c.interceptors {
		if err := i.BeforeSend(ctx, req); err != nil {
			c.log.Error("request aborted before send",
				slog.String("method", r.Method),
				slog.String("path", r.Path),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("%s %s: %w", r.Method, r.Path, err)
		}
	}

	c.log.Debug("request sent",
		slog.String("method", r.Method),
		slog.String("path", r.Path),
		slog.String("request_id", req.Header.Get(HeaderRequestID)),
		slog.Bool("authenticated", req.Header.Get("Authorization") != ""))

	start := time.Now()
	resp, err := c.send(req, r)

	if err != nil {
		c.log.Warn("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.Path),
			slog.Int("status", resp.statusOrZero()),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
	} else {
		c.log.Debug("response received",
			slog.String("method", r.Method),
			slog.String("path", r.Path),
			slog.Int("status", resp.Status),
			slog.Duration("duration", time.Since(start)))
	}

	for _, i := range c.interceptors {
		err = i.AfterReceive(ctx, req, resp, err)
	}

	return resp, err
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, &Request{Method: http.MethodDelete, Path: path, Body: body}, out)
}

func (c *Client) call(ctx context.Context, r *Request, out any) error {
	resp, err := c.Do(ctx, r)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w", r.Method, r.Path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r *Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	switch {
	case r.RawBody != nil:
		body = r.RawBody
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: marshal request: %w", r.Method, r.Path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: create request: %w", r.Method, r.Path, err)
	}

	for key, values := range c.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	for key, values := range r.Header {
		req.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}
	req.Header.Set(HeaderRequestID, uuid.NewString())

	return req, nil
}

func (c *Client) send(req *http.Request, r *Request) (*Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newUnreachableError(r.Method, r.Path, err)
	}
	defer resp.Body.Close()

	// Тело читаем целиком до проверки статуса
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newUnreachableError(r.Method, r.Path, fmt.Errorf("read response: %w", err))
	}

	out := &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return out, newStatusError(r.Method, r.Path, resp.StatusCode, body)
	}

	return out, nil
}

func (r *Response) statusOrZero() int {
	if r == nil {
		return 0
	}
	return r.Status
}
