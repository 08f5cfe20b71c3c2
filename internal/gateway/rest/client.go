// Package rest — HTTP-клиент удалённого шлюза товаров.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"golang.org/x/time/rate"
)

var _ ports.ProductGateway = (*Client)(nil)

// maxErrorBody — сколько байт тела ошибки попадает в текст ошибки.
const maxErrorBody = 512

// Config — параметры клиента шлюза.
type Config struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	RateLimit float64 // запросов в секунду; 0 — без ограничения
	Burst     int
	Retries   int // повторы только для чтения (List/Get)
	Backoff   time.Duration
}

// Client — CRUD товаров поверх REST: GET/POST /products, GET/PATCH/DELETE /products/{id}.
// Ошибки классифицируются в domain.ErrNotFound / domain.ErrValidation / domain.ErrNetwork.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	limiter *rate.Limiter
	retries int
	backoff time.Duration
	log     ports.Logger
}

func NewClient(cfg Config, httpClient *http.Client, log ports.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("gateway base url %q is invalid", cfg.BaseURL)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	return &Client{
		base:    base,
		token:   cfg.Token,
		http:    httpClient,
		limiter: limiter,
		retries: max(cfg.Retries, 0),
		backoff: backoff,
		log:     log,
	}, nil
}

// listResponse — ответ списка: {"content": [...]}.
type listResponse struct {
	Content []domain.Product `json:"content"`
}

func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	var out listResponse
	if err := c.read(ctx, "/products", &out); err != nil {
		return nil, err
	}
	if out.Content == nil {
		return []domain.Product{}, nil
	}
	return out.Content, nil
}

func (c *Client) Get(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.read(ctx, productPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodPost, "/products", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update — PATCH с телом только из заданных полей; бэкенд возвращает товар целиком.
func (c *Client) Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodPatch, productPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete — false, если шлюз не нашёл товар.
func (c *Client) Delete(ctx context.Context, id string) (bool, error) {
	err := c.do(ctx, http.MethodDelete, productPath(id), nil, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ------вспомогательные функции------

func productPath(id string) string { return "/products/" + url.PathEscape(id) }

// read — GET с повтором на сетевых ошибках и 5xx.
func (c *Client) read(ctx context.Context, path string, out any) error {
	delay := c.backoff
	for attempt := 0; ; attempt++ {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil || !retryable(err) || attempt >= c.retries {
			return err
		}
		sleep := delay/2 + time.Duration(rand.Int63n(int64(delay/2)+1))
		c.log.Warnf(ctx, "gateway GET %s failed: %v (retry %d in %s)", path, err, attempt+1, sleep)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrNetwork, ctx.Err())
		case <-time.After(sleep):
		}
		delay *= 2
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %v", domain.ErrNetwork, err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(method, path, resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrNetwork, method, path, err)
	}
	return nil
}

// classifyStatus — 404 → ErrNotFound, 400/422 → ErrValidation, прочие не-2xx → ErrNetwork.
func classifyStatus(method, path string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(snippet))

	var kind error
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = domain.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = domain.ErrValidation
	default:
		kind = domain.ErrNetwork
	}
	return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: msg, kind: kind}
}

// StatusError — ответ шлюза с кодом не 2xx.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
	kind   error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gateway %s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("gateway %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return errors.Is(err, domain.ErrNetwork)
}
