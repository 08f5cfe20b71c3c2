package shopify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/gateway/shopify"
)

type captured struct {
	Query     string `json:"query"`
	Variables struct {
		Input map[string]any `json:"input"`
	} `json:"variables"`
}

func newSync(t *testing.T, reply string, status int, got *captured) *shopify.ListingSync {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "tok", r.Header.Get("X-Shopify-Access-Token"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	s, err := shopify.NewListingSync(shopify.Config{Endpoint: srv.URL, Token: "tok"}, srv.Client())
	require.NoError(t, err)
	return s
}

var ring = &domain.Product{
	ID: "p-1", ProductType: domain.TypeJewelry, Name: "Emerald Ring", Supplier: "Atelier",
	Category: "Rings", Tags: []string{"green"},
}

func TestNewListingSync_RequiresShopAndToken(t *testing.T) {
	_, err := shopify.NewListingSync(shopify.Config{Token: "tok"}, nil)
	require.Error(t, err)
	_, err = shopify.NewListingSync(shopify.Config{Shop: "s.myshopify.com"}, nil)
	require.Error(t, err)
	_, err = shopify.NewListingSync(shopify.Config{Shop: "s.myshopify.com", Token: "tok"}, nil)
	require.NoError(t, err)
}

func TestCreateRemoteListing_ReturnsID(t *testing.T) {
	var got captured
	s := newSync(t, `{"data":{"productCreate":{"product":{"id":"gid://shopify/Product/42"},"userErrors":[]}}}`, http.StatusOK, &got)

	id, err := s.CreateRemoteListing(context.Background(), ring)
	require.NoError(t, err)
	require.Equal(t, "gid://shopify/Product/42", id)

	require.Contains(t, got.Query, "productCreate")
	require.Equal(t, "Emerald Ring", got.Variables.Input["title"])
	require.Equal(t, "Jewelry", got.Variables.Input["productType"])
	require.Equal(t, []any{"green", "Rings"}, got.Variables.Input["tags"])
	require.NotContains(t, got.Variables.Input, "id")
}

func TestCreateRemoteListing_UserErrors(t *testing.T) {
	s := newSync(t, `{"data":{"productCreate":{"product":null,"userErrors":[{"field":["title"],"message":"can't be blank"}]}}}`, http.StatusOK, nil)

	_, err := s.CreateRemoteListing(context.Background(), ring)
	require.ErrorIs(t, err, shopify.ErrUserErrors)
	require.Contains(t, err.Error(), "title: can't be blank")
}

func TestUpdateRemoteListing_SendsID(t *testing.T) {
	var got captured
	s := newSync(t, `{"data":{"productUpdate":{"product":{"id":"gid://shopify/Product/42"},"userErrors":[]}}}`, http.StatusOK, &got)

	require.NoError(t, s.UpdateRemoteListing(context.Background(), "gid://shopify/Product/42", ring))
	require.Contains(t, got.Query, "productUpdate")
	require.Equal(t, "gid://shopify/Product/42", got.Variables.Input["id"])
}

func TestUpdateRemoteListing_EmptyID(t *testing.T) {
	s := newSync(t, `{}`, http.StatusOK, nil)
	require.Error(t, s.UpdateRemoteListing(context.Background(), "", ring))
}

func TestMutation_TransportAndGraphQLErrors(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		status int
		want   string
	}{
		{"http status", `{"errors":"Invalid API key"}`, http.StatusUnauthorized, "status 401"},
		{"graphql errors", `{"errors":[{"message":"Throttled"}]}`, http.StatusOK, "graphql: Throttled"},
		{"broken json", `not-json`, http.StatusOK, "parse response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSync(t, tt.reply, tt.status, nil)
			_, err := s.CreateRemoteListing(context.Background(), ring)
			require.ErrorContains(t, err, tt.want)
		})
	}
}
