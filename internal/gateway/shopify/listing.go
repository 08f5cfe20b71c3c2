// Package shopify — синхронизация товаров с витриной Shopify через Admin GraphQL API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"golang.org/x/time/rate"
)

var _ ports.ListingSync = (*ListingSync)(nil)

// ErrUserErrors — Shopify отклонил мутацию (userErrors).
var ErrUserErrors = errors.New("shopify rejected the listing")

const (
	defaultAPIVersion = "2024-07"

	createMutation = `mutation ProductCreate($input: ProductInput!) {
	productCreate(input: $input) {
		product { id }
		userErrors { field message }
	}
}`

	updateMutation = `mutation ProductUpdate($input: ProductInput!) {
	productUpdate(input: $input) {
		product { id }
		userErrors { field message }
	}
}`
)

// Config — параметры магазина.
type Config struct {
	Shop       string // my-shop.myshopify.com
	Token      string
	APIVersion string
	Endpoint   string // полный URL graphql.json; по умолчанию собирается из Shop и APIVersion
	Timeout    time.Duration
	RateLimit  float64
}

// ListingSync — productCreate/productUpdate по данным товара каталога.
type ListingSync struct {
	endpoint string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
}

func NewListingSync(cfg Config, httpClient *http.Client) (*ListingSync, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Shop == "" {
			return nil, errors.New("shopify shop is required")
		}
		ver := cfg.APIVersion
		if ver == "" {
			ver = defaultAPIVersion
		}
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", cfg.Shop, ver)
	}
	if cfg.Token == "" {
		return nil, errors.New("shopify access token is required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &ListingSync{endpoint: endpoint, token: cfg.Token, http: httpClient, limiter: limiter}, nil
}

// CreateRemoteListing — productCreate; возвращает GID товара в Shopify.
func (s *ListingSync) CreateRemoteListing(ctx context.Context, p *domain.Product) (string, error) {
	var out struct {
		ProductCreate mutationResult `json:"productCreate"`
	}
	if err := s.mutate(ctx, createMutation, productInput(p, ""), &out); err != nil {
		return "", err
	}
	if err := out.ProductCreate.err(); err != nil {
		return "", err
	}
	if out.ProductCreate.Product == nil || out.ProductCreate.Product.ID == "" {
		return "", errors.New("shopify productCreate returned no product id")
	}
	return out.ProductCreate.Product.ID, nil
}

// UpdateRemoteListing — productUpdate существующего товара.
func (s *ListingSync) UpdateRemoteListing(ctx context.Context, externalID string, p *domain.Product) error {
	if externalID == "" {
		return errors.New("shopify product id is required")
	}
	var out struct {
		ProductUpdate mutationResult `json:"productUpdate"`
	}
	if err := s.mutate(ctx, updateMutation, productInput(p, externalID), &out); err != nil {
		return err
	}
	return out.ProductUpdate.err()
}

// ------вспомогательные функции------

type gqlReq struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlResp struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type mutationResult struct {
	Product *struct {
		ID string `json:"id"`
	} `json:"product"`
	UserErrors []userError `json:"userErrors"`
}

func (r mutationResult) err() error {
	if len(r.UserErrors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.UserErrors))
	for _, ue := range r.UserErrors {
		if len(ue.Field) > 0 {
			msgs = append(msgs, strings.Join(ue.Field, ".")+": "+ue.Message)
			continue
		}
		msgs = append(msgs, ue.Message)
	}
	return fmt.Errorf("%w: %s", ErrUserErrors, strings.Join(msgs, "; "))
}

// productInput — ProductInput из товара каталога; id задаётся только для update.
func productInput(p *domain.Product, id string) map[string]any {
	in := map[string]any{
		"title":           p.Name,
		"descriptionHtml": p.Description,
		"productType":     string(p.ProductType),
		"vendor":          p.Supplier,
		"tags":            listingTags(p),
	}
	if id != "" {
		in["id"] = id
	}
	return map[string]any{"input": in}
}

// listingTags — теги товара плюс категория варианта.
func listingTags(p *domain.Product) []string {
	tags := append([]string{}, p.Tags...)
	if c := p.CategoryValue(); c != "" {
		tags = append(tags, c)
	}
	return tags
}

func (s *ListingSync) mutate(ctx context.Context, query string, vars map[string]any, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("shopify rate limit wait: %w", err)
	}

	b, err := json.Marshal(gqlReq{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", s.token)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("shopify request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("shopify status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var gr gqlResp
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return fmt.Errorf("graphql: %s", gr.Errors[0].Message)
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("parse data: %w", err)
	}
	return nil
}
