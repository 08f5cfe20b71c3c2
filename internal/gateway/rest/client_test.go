package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/gateway/rest"
)

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

func newClient(t *testing.T, h http.Handler, cfg rest.Config) *rest.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL + "/api/"
	c, err := rest.NewClient(cfg, srv.Client(), nopLogger{})
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := rest.NewClient(rest.Config{BaseURL: "not a url"}, nil, nopLogger{})
	require.Error(t, err)
}

func TestList_DecodesContent(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/products", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"content":[{"id":"1","productType":"Jewelry","name":"Ring","metal":"Gold"}]}`))
	}), rest.Config{Token: "secret"})

	got, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, domain.TypeJewelry, got[0].ProductType)
	require.Equal(t, "Gold", got[0].Metal)
}

func TestList_EmptyContent(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}), rest.Config{})

	got, err := c.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestList_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"content":[]}`))
	}), rest.Config{Retries: 2, Backoff: time.Millisecond})

	_, err := c.List(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())
}

func TestList_RetriesExhaustedIsNetworkError(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), rest.Config{Retries: 1, Backoff: time.Millisecond})

	_, err := c.List(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
	require.EqualValues(t, 2, calls.Load())

	var se *rest.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestList_UnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c, err := rest.NewClient(rest.Config{BaseURL: srv.URL, Backoff: time.Millisecond}, nil, nopLogger{})
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
}

func TestGet_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"bad request", http.StatusBadRequest, domain.ErrValidation},
		{"unprocessable", http.StatusUnprocessableEntity, domain.ErrValidation},
		{"unauthorized", http.StatusUnauthorized, domain.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}), rest.Config{})

			_, err := c.Get(context.Background(), "x")
			require.ErrorIs(t, err, tt.want)
			require.Contains(t, err.Error(), "nope")
		})
	}
}

func TestCreate_SendJSON(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/products", r.URL.Path)
		var p domain.Product
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		p.ID = "new-id"
		_ = json.NewEncoder(w).Encode(p)
	}), rest.Config{})

	created, err := c.Create(context.Background(), &domain.Product{Name: "Idol", ProductType: domain.TypeCarvedIdol})
	require.NoError(t, err)
	require.Equal(t, "new-id", created.ID)
}

// Обновление одного количества не должно затирать остальные поля на бэкенде.
func TestUpdate_SendsOnlyPatchedFields(t *testing.T) {
	stored := domain.Product{
		ID:           "a/b",
		ProductType:  domain.TypeLooseStone,
		Name:         "Ruby",
		Cost:         100,
		Price:        150,
		GemstoneType: "Ruby",
		Quantity:     domain.IntPtr(10),
	}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/products/a%2Fb", r.URL.EscapedPath())
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"quantity":2}`, string(raw))

		var patch domain.ProductPatch
		require.NoError(t, json.Unmarshal(raw, &patch))
		_ = json.NewEncoder(w).Encode(patch.Apply(&stored))
	}), rest.Config{})

	updated, err := c.Update(context.Background(), "a/b", &domain.ProductPatch{Quantity: domain.IntPtr(2)})
	require.NoError(t, err)
	require.Equal(t, "Ruby", updated.Name)
	require.Equal(t, 150.0, updated.Price)
	require.Equal(t, domain.TypeLooseStone, updated.ProductType)
	require.Equal(t, 2, *updated.Quantity)
}

func TestCreate_NotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), rest.Config{Retries: 3, Backoff: time.Millisecond})

	_, err := c.Create(context.Background(), &domain.Product{Name: "x"})
	require.ErrorIs(t, err, domain.ErrNetwork)
	require.EqualValues(t, 1, calls.Load())
}

func TestDelete(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/api/products/ok":
			w.WriteHeader(http.StatusNoContent)
		case "/api/products/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}), rest.Config{})

	ok, err := c.Delete(context.Background(), "ok")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Delete(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = c.Delete(context.Background(), "boom")
	require.ErrorIs(t, err, domain.ErrNetwork)
}

func TestRateLimit_Waits(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}), rest.Config{RateLimit: 20, Burst: 1})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.List(context.Background())
		require.NoError(t, err)
	}
	// 3 запроса при 20 rps и burst 1: не меньше ~100ms
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRateLimit_ContextCancelled(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}), rest.Config{RateLimit: 0.1, Burst: 1})

	_, err := c.List(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.List(ctx)
	require.ErrorIs(t, err, domain.ErrNetwork)
}
