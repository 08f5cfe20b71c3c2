package rest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/Gunvolt24/gemstock/pkg/httpx"
	"github.com/Gunvolt24/gemstock/pkg/validate"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	defaultPageLimit  = domain.DefaultPageLimit
	maxPageLimit      = 100
	defaultAlertLimit = 50
	maxAlertLimit     = 500
	maxBodyBytes      = 1 << 20
)

type Handler struct {
	catalog   ports.CatalogService
	journal   ports.ReorderJournal
	validator ports.ProductValidator
	log       ports.Logger
	timeout   time.Duration
}

// NewHandler — journal может быть nil (журнал дозаказа не настроен).
func NewHandler(catalog ports.CatalogService, journal ports.ReorderJournal, log ports.Logger, timeout time.Duration) *Handler {
	return &Handler{
		catalog:   catalog,
		journal:   journal,
		validator: validate.NewProductValidator(),
		log:       log,
		timeout:   timeout,
	}
}

func NewRouter(h *Handler, staticDir, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/products", h.listProducts)
	api.POST("/products", h.createProduct)
	api.GET("/products/:id", h.getProduct)
	api.PUT("/products/:id", h.replaceProduct)
	api.PATCH("/products/:id", h.patchProduct)
	api.DELETE("/products/:id", h.deleteProduct)
	api.GET("/categories", h.listCategories)
	api.GET("/reorder-alerts", h.listReorderAlerts)

	if staticDir != "" {
		r.Static("/static", staticDir)
		r.StaticFile("/", filepath.Join(staticDir, "index.html"))
	}

	return r
}

func (h *Handler) listProducts(c *gin.Context) {
	f, err := httpx.ParseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, limit := httpx.ParsePageLimit(c, defaultPageLimit, maxPageLimit)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.catalog.Page(ctx, f, domain.Pagination{Page: page, Limit: limit})
	if err != nil {
		h.fail(c, "load products", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getProduct(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := h.requestContext(c)
	defer cancel()

	p, err := h.catalog.Product(ctx, id)
	if err != nil {
		h.fail(c, "load product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) createProduct(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	p, ok := h.bindProduct(ctx, c)
	if !ok {
		return
	}
	created, err := h.catalog.Create(ctx, p)
	if err != nil {
		h.fail(c, "add product", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// replaceProduct — PUT: полный товар проверяется и уходит патчем со всеми полями.
func (h *Handler) replaceProduct(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := h.requestContext(c)
	defer cancel()

	p, ok := h.bindProduct(ctx, c)
	if !ok {
		return
	}
	h.update(ctx, c, id, domain.PatchFrom(p))
}

// patchProduct — PATCH: меняются только переданные поля; проверяется товар после их наложения.
func (h *Handler) patchProduct(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := h.requestContext(c)
	defer cancel()

	raw, ok := readBody(c)
	if !ok {
		return
	}
	current, err := h.catalog.Product(ctx, id)
	if err != nil {
		h.fail(c, "update product", err)
		return
	}
	patch, err := validate.ValidatePatchFromJSON(ctx, h.validator, current, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.update(ctx, c, id, patch)
}

func (h *Handler) update(ctx context.Context, c *gin.Context, id string, patch *domain.ProductPatch) {
	updated, err := h.catalog.Update(ctx, id, patch)
	if err != nil {
		h.fail(c, "update product", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := h.requestContext(c)
	defer cancel()

	if err := h.catalog.Delete(ctx, id); err != nil {
		h.fail(c, "delete product", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listCategories — категории товаров текущей страницы с теми же фильтрами.
func (h *Handler) listCategories(c *gin.Context) {
	f, err := httpx.ParseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, limit := httpx.ParsePageLimit(c, defaultPageLimit, maxPageLimit)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	res, err := h.catalog.Page(ctx, f, domain.Pagination{Page: page, Limit: limit})
	if err != nil {
		h.fail(c, "load categories", err)
		return
	}
	c.JSON(http.StatusOK, domain.Categories(res.Items))
}

func (h *Handler) listReorderAlerts(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusOK, []domain.ReorderAdvisory{})
		return
	}
	_, limit := httpx.ParsePageLimit(c, defaultAlertLimit, maxAlertLimit)

	ctx, cancel := h.requestContext(c)
	defer cancel()

	alerts, err := h.journal.ListRecent(ctx, limit)
	if err != nil {
		h.fail(c, "load reorder alerts", err)
		return
	}
	if alerts == nil {
		alerts = []domain.ReorderAdvisory{}
	}
	c.JSON(http.StatusOK, alerts)
}

// bindProduct — строгий разбор тела и валидация; при ошибке ответ уже записан.
// Это единственная проверка товара перед записью: каталог данные не валидирует.
func (h *Handler) bindProduct(ctx context.Context, c *gin.Context) (*domain.Product, bool) {
	raw, ok := readBody(c)
	if !ok {
		return nil, false
	}
	p, err := validate.ValidateProductFromJSON(ctx, h.validator, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return p, true
}

func readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return nil, false
	}
	return raw, true
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

// fail — классификация ошибки в HTTP-статус.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.UserMessage(op, err)})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, domain.ErrStaleCache):
		h.log.Errorf(c.Request.Context(), "%s: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.UserMessage(op, err)})
	case errors.Is(err, domain.ErrNetwork):
		h.log.Warnf(c.Request.Context(), "%s: upstream failed: %v", op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.UserMessage(op, err)})
	default:
		h.log.Errorf(c.Request.Context(), "%s failed: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
