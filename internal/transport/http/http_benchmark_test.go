//go:build !integration

package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/gemstock/internal/domain"
)

// --- Бенчмарки ---

// Базовый бенч: GET /api/products/:id — сравниваем LEAN vs FULL пайплайн
func BenchmarkHTTP_GetProduct(b *testing.B) {
	p := benchProduct(0)
	h := NewHandler(svcFixed{page: &domain.PageResult{Items: []domain.Product{p}}}, nil, nopLogger{}, 2*time.Second)

	lean := makeLeanRouter(h)
	full := makeFullRouter(h)

	b.Run("lean/no-mw", func(b *testing.B) {
		benchServeGET(b, lean, "/api/products/"+p.ID)
	})
	b.Run("full/prod-mw", func(b *testing.B) {
		benchServeGET(b, full, "/api/products/"+p.ID)
	})
}

// Потолок без маршалинга: тот же товар, но заранее закодированный JSON
func BenchmarkHTTP_GetProduct_PreMarshaledBytes(b *testing.B) {
	p := benchProduct(0)
	raw, _ := json.Marshal(p)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/api/products/:id", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", raw)
	})

	benchServeGET(b, r, "/api/products/"+p.ID)
}

// Страница каталога: 12/50/100 — рост аллокаций и времени с размером страницы
func BenchmarkHTTP_ListProducts(b *testing.B) {
	for _, n := range []int{12, 50, 100} {
		b.Run("N="+strconv.Itoa(n), func(b *testing.B) {
			items := make([]domain.Product, 0, n)
			for i := 0; i < n; i++ {
				items = append(items, benchProduct(i))
			}
			page := &domain.PageResult{Items: items, TotalElements: n, TotalPages: 1, PageSize: n, PageNumber: 1}
			h := NewHandler(svcFixed{page: page}, nil, nopLogger{}, 2*time.Second)

			lean := makeLeanRouter(h)
			benchServeGET(b, lean, "/api/products?metal=Gold&tags=gift&limit="+strconv.Itoa(n))
		})
	}
}

// Ошибочный путь (404): "цена" роутера и 404-хендлера
func BenchmarkHTTP_404(b *testing.B) {
	h := NewHandler(svcFixed{}, nil, nopLogger{}, 2*time.Second)
	r := makeLeanRouter(h)

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req, _ := http.NewRequest(http.MethodGet, "/nope", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			_, _ = io.Copy(io.Discard, w.Body)
			if w.Code != http.StatusNotFound {
				b.Fatalf("status=%d", w.Code)
			}
		}
	})
}

// --- nopLogger — логгер, который не делает ничего. ---

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

// --- Стабы ---

// svcFixed — отдаёт заранее подготовленную страницу (без аллокаций на каждом вызове)
type svcFixed struct{ page *domain.PageResult }

func (s svcFixed) FetchPage(ctx context.Context, f domain.FilterParams, p domain.Pagination) (*domain.PageResult, error) {
	return s.Page(ctx, f, p)
}
func (s svcFixed) Page(context.Context, domain.FilterParams, domain.Pagination) (*domain.PageResult, error) {
	return s.page, nil
}
func (s svcFixed) Product(context.Context, string) (*domain.Product, error) {
	return &s.page.Items[0], nil
}
func (s svcFixed) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	return p, nil
}
func (s svcFixed) Update(_ context.Context, _ string, patch *domain.ProductPatch) (*domain.Product, error) {
	return patch.Apply(&s.page.Items[0]), nil
}
func (s svcFixed) Delete(context.Context, string) error { return nil }

// --- функции-помощники ---

func benchProduct(i int) domain.Product {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Product{
		ID:                "bench-" + strconv.Itoa(i),
		ProductType:       domain.TypeJewelry,
		Name:              "Bench ring " + strconv.Itoa(i),
		Description:       "Gold ring with a single sapphire",
		AcquisitionDate:   at,
		Cost:              300,
		Price:             640,
		Tags:              []string{"gift", "bench"},
		InventoryQuantity: domain.IntPtr(4),
		ReorderThreshold:  domain.IntPtr(2),
		Category:          "Rings",
		Style:             "Classic",
		Metal:             "Gold",
		Gemstones:         []domain.Gemstone{{Type: "Sapphire", CaratWeight: 0.5, Count: 1}},
		CreatedAt:         at,
		UpdatedAt:         at,
	}
}

func makeLeanRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New() // без Recovery/otel/logger — получаем меньшую аллокацию
	r.GET("/api/products", h.listProducts)
	r.GET("/api/products/:id", h.getProduct)
	return r
}

func makeFullRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	// prod пайплайн из NewRouter
	return NewRouter(h, "", "")
}

func benchServeGET(b *testing.B, r *gin.Engine, path string) {
	b.Helper()
	b.ReportAllocs()
	b.ResetTimer()

	// Параллельный режим ближе к реальности без TCP
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req, _ := http.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			// вычитываем тело
			_, _ = io.Copy(io.Discard, w.Body)
			if w.Code != http.StatusOK {
				b.Fatalf("status=%d", w.Code)
			}
		}
	})
}
