package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/Gunvolt24/gemstock/pkg/metrics"
	"github.com/Gunvolt24/gemstock/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidEvent — событие изменения не разобрать; повтор не поможет.
var ErrInvalidEvent = errors.New("invalid change event")

const (
	defaultFetchTimeout = 10 * time.Second
	backgroundTimeout   = 10 * time.Second
)

// ProductCatalog — общая для процесса логика каталога (без знаний о транспорте):
// чтение через ProductStore, мутации через шлюз с полной инвалидацией,
// best-effort синхронизация с площадкой, события изменений и рекомендации дозаказа.
type ProductCatalog struct {
	gateway ports.ProductGateway
	store   ports.ProductStore
	log     ports.Logger

	listing   ports.ListingSync
	notifier  ports.ReorderNotifier
	publisher ports.ChangePublisher

	instanceID   string
	fetchTimeout time.Duration
	now          func() time.Time

	flights singleflight.Group
	bg      sync.WaitGroup
}

// CatalogOption — необязательные зависимости и параметры.
type CatalogOption func(*ProductCatalog)

func WithListingSync(l ports.ListingSync) CatalogOption {
	return func(s *ProductCatalog) { s.listing = l }
}

func WithReorderNotifier(n ports.ReorderNotifier) CatalogOption {
	return func(s *ProductCatalog) { s.notifier = n }
}

func WithChangePublisher(p ports.ChangePublisher) CatalogOption {
	return func(s *ProductCatalog) { s.publisher = p }
}

// WithInstanceID — источник событий этого экземпляра; свои события при чтении пропускаются.
func WithInstanceID(id string) CatalogOption {
	return func(s *ProductCatalog) { s.instanceID = id }
}

func WithCatalogFetchTimeout(d time.Duration) CatalogOption {
	return func(s *ProductCatalog) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func WithClock(now func() time.Time) CatalogOption {
	return func(s *ProductCatalog) { s.now = now }
}

// NewProductCatalog — DI-конструктор. Данные товара проверяет вызывающий слой (HTTP, CLI).
func NewProductCatalog(
	gateway ports.ProductGateway,
	store ports.ProductStore,
	log ports.Logger,
	opts ...CatalogOption,
) *ProductCatalog {
	s := &ProductCatalog{
		gateway:      gateway,
		store:        store,
		log:          log,
		instanceID:   uuid.NewString(),
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InstanceID — идентификатор экземпляра в событиях изменений.
func (s *ProductCatalog) InstanceID() string { return s.instanceID }

// FetchPage — полный список из шлюза, затем фильтры/сортировка/пагинация в памяти. Кэш не читается.
func (s *ProductCatalog) FetchPage(ctx context.Context, f domain.FilterParams, p domain.Pagination) (*domain.PageResult, error) {
	gen, _ := s.generation(ctx)
	return s.fetchPage(ctx, gen, f, p)
}

// Page — read-through: попадание в кэш или загрузка с условной записью.
// Запись отбрасывается, если за время загрузки прошла инвалидация.
func (s *ProductCatalog) Page(ctx context.Context, f domain.FilterParams, p domain.Pagination) (*domain.PageResult, error) {
	p = p.Normalize()
	key := domain.PageKey(f, p)
	if page, ok := s.store.GetPage(ctx, key); ok {
		return page, nil
	}

	gen, genOK := s.generation(ctx)
	page, err := s.fetchPage(ctx, gen, f, p)
	if err != nil {
		return nil, err
	}
	if genOK {
		if _, err := s.store.SetPageAt(ctx, gen, key, page); err != nil {
			s.log.Warnf(ctx, "store.SetPageAt failed key=%s err=%v", key, err)
		}
	}
	return page, nil
}

// Product — товар по id: кэш сущностей, при промахе один запрос в шлюз на id.
func (s *ProductCatalog) Product(ctx context.Context, id string) (*domain.Product, error) {
	if p, ok := s.store.GetEntity(ctx, id); ok {
		return p, nil
	}

	gen, genOK := s.generation(ctx)
	v, err := s.shared(ctx, "entity:"+strconv.FormatUint(gen, 10)+":"+id, func(cctx context.Context) (any, error) {
		return s.gatewayGet(cctx, id)
	})
	if err != nil {
		return nil, err
	}
	p := v.(*domain.Product)
	if genOK {
		if _, err := s.store.SetEntityAt(ctx, gen, p); err != nil {
			s.log.Warnf(ctx, "store.SetEntityAt failed id=%s err=%v", id, err)
		}
	}
	return p.Clone(), nil
}

// Categories — категории вариантов на текущей странице (не по всему каталогу).
func (s *ProductCatalog) Categories(ctx context.Context, f domain.FilterParams, p domain.Pagination) ([]string, error) {
	page, err := s.Page(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return domain.Categories(page.Items), nil
}

// Create — создать товар; затем листинг на площадке, инвалидация, событие.
// Если кэш сбросить не удалось, возвращается созданный товар вместе с domain.ErrStaleCache.
func (s *ProductCatalog) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	created, err := s.gatewayCall(ctx, "create", func(cctx context.Context) (*domain.Product, error) {
		return s.gateway.Create(cctx, p)
	})
	if err != nil {
		s.log.Errorf(ctx, "gateway.Create failed name=%q err=%v", p.Name, err)
		return nil, err
	}

	created = s.createListing(ctx, created)
	s.log.Infof(ctx, "product created id=%s type=%s", created.ID, created.ProductType)
	return created, s.invalidate(ctx, domain.ChangeCreated, created.ID)
}

// Update — частично обновить товар; затем листинг, инвалидация, событие и проверка порога дозаказа.
// Порог проверяется по товару, который вернул бэкенд, а не по патчу.
func (s *ProductCatalog) Update(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("update %s: empty patch: %w", id, domain.ErrValidation)
	}

	updated, err := s.gatewayCall(ctx, "update", func(cctx context.Context) (*domain.Product, error) {
		return s.gateway.Update(cctx, id, patch)
	})
	if err != nil {
		s.log.Errorf(ctx, "gateway.Update failed id=%s err=%v", id, err)
		return nil, err
	}

	if s.listing != nil && updated.ShopifyID != "" {
		if err := s.listing.UpdateRemoteListing(ctx, updated.ShopifyID, updated); err != nil {
			metrics.ListingSyncFailures.WithLabelValues("update").Inc()
			s.log.Warnf(ctx, "listing update failed id=%s external=%s err=%v", id, updated.ShopifyID, err)
		}
	}

	invErr := s.invalidate(ctx, domain.ChangeUpdated, id)
	s.adviseReorder(ctx, updated)
	s.log.Infof(ctx, "product updated id=%s", id)
	return updated, invErr
}

// Delete — удалить товар. Отказ шлюза (false) считается отсутствием товара.
func (s *ProductCatalog) Delete(ctx context.Context, id string) error {
	start := time.Now()
	cctx, span := telemetry.StartSpan(ctx, "gateway.delete", attribute.String("product.id", id))
	ok, err := s.gateway.Delete(cctx, id)
	if err == nil && !ok {
		err = fmt.Errorf("delete %s: %w", id, domain.ErrNotFound)
	}
	observeGateway("delete", start, err)
	telemetry.EndSpan(span, err)
	if err != nil {
		s.log.Errorf(ctx, "gateway.Delete failed id=%s err=%v", id, err)
		return err
	}

	s.log.Infof(ctx, "product deleted id=%s", id)
	return s.invalidate(ctx, domain.ChangeDeleted, id)
}

// InvalidateAll — сброс кэша без мутации (внешнее событие, ручной сброс).
func (s *ProductCatalog) InvalidateAll(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

// WarmUpCache — прогрев первых n страниц витрины по умолчанию и товаров на них.
// Если n <= 0, прогрев не выполняется (но это не ошибка).
func (s *ProductCatalog) WarmUpCache(ctx context.Context, n int) error {
	if n <= 0 {
		s.log.Warnf(ctx, "cache warm-up skipped: n <= 0 (n=%d)", n)
		return nil
	}

	start := time.Now()
	gen, genOK := s.generation(ctx)
	all, err := s.loadAll(ctx, gen)
	if err != nil {
		s.log.Errorf(ctx, "warm-up: gateway list failed err=%v", err)
		return err
	}
	if !genOK {
		return nil
	}

	var pages, entities int
	for page := 1; page <= n; page++ {
		pg := domain.Pagination{Page: page, Limit: domain.DefaultPageLimit}
		res := domain.BuildPage(all, domain.FilterParams{}, pg)
		if len(res.Items) == 0 {
			break
		}
		if ok, _ := s.store.SetPageAt(ctx, gen, domain.PageKey(domain.FilterParams{}, pg), res); ok {
			pages++
		}
		for i := range res.Items {
			if ok, _ := s.store.SetEntityAt(ctx, gen, &res.Items[i]); ok {
				entities++
			}
		}
	}
	s.log.Infof(ctx, "cache warmed pages=%d products=%d in %s", pages, entities, time.Since(start))
	return nil
}

// ApplyChangeEvent — событие из Kafka (raw JSON). Чужое событие сбрасывает кэш,
// своё пропускается. Некорректное — ErrInvalidEvent.
func (s *ProductCatalog) ApplyChangeEvent(ctx context.Context, raw []byte) error {
	var ev domain.ChangeEvent
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ev); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return fmt.Errorf("%w: trailing data", ErrInvalidEvent)
	}
	switch ev.Kind {
	case domain.ChangeCreated, domain.ChangeUpdated, domain.ChangeDeleted:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, ev.Kind)
	}
	if ev.Source == "" {
		return fmt.Errorf("%w: empty source", ErrInvalidEvent)
	}

	if ev.Source == s.instanceID {
		return nil
	}
	if err := s.InvalidateAll(ctx); err != nil {
		return err
	}
	s.log.Infof(ctx, "store cleared by remote change source=%s kind=%s product=%s", ev.Source, ev.Kind, ev.ProductID)
	return nil
}

// Wait — дождаться фоновых задач (события, рекомендации). Для остановки и тестов.
func (s *ProductCatalog) Wait() { s.bg.Wait() }

// ------вспомогательные функции------

func (s *ProductCatalog) generation(ctx context.Context) (uint64, bool) {
	gen, err := s.store.Generation(ctx)
	if err != nil {
		s.log.Warnf(ctx, "store.Generation failed, result will not be cached: %v", err)
		return 0, false
	}
	return gen, true
}

func (s *ProductCatalog) fetchPage(ctx context.Context, gen uint64, f domain.FilterParams, p domain.Pagination) (*domain.PageResult, error) {
	all, err := s.loadAll(ctx, gen)
	if err != nil {
		return nil, err
	}
	return domain.BuildPage(all, f, p), nil
}

// loadAll — полный список; одновременные вызовы одного поколения делят один запрос.
func (s *ProductCatalog) loadAll(ctx context.Context, gen uint64) ([]domain.Product, error) {
	v, err := s.shared(ctx, "list:"+strconv.FormatUint(gen, 10), func(cctx context.Context) (any, error) {
		start := time.Now()
		cctx, span := telemetry.StartSpan(cctx, "gateway.list")
		items, err := s.gateway.List(cctx)
		observeGateway("list", start, err)
		span.SetAttributes(attribute.Int("products.count", len(items)))
		telemetry.EndSpan(span, err)
		return items, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// shared — singleflight: запрос живёт независимо от отмены отдельного вызывающего,
// ограничен fetchTimeout; вызывающий перестаёт ждать по своему ctx.
func (s *ProductCatalog) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.flights.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return fn(cctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *ProductCatalog) gatewayGet(ctx context.Context, id string) (*domain.Product, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "gateway.get", attribute.String("product.id", id))
	p, err := s.gateway.Get(ctx, id)
	if err == nil && p == nil {
		err = fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	observeGateway("get", start, err)
	telemetry.EndSpan(span, err)
	return p, err
}

func (s *ProductCatalog) gatewayCall(ctx context.Context, op string, fn func(context.Context) (*domain.Product, error)) (*domain.Product, error) {
	start := time.Now()
	cctx, span := telemetry.StartSpan(ctx, "gateway."+op)
	p, err := fn(cctx)
	if err == nil && p == nil {
		err = fmt.Errorf("gateway %s returned no product: %w", op, domain.ErrNetwork)
	}
	observeGateway(op, start, err)
	telemetry.EndSpan(span, err)
	return p, err
}

// createListing — листинг на площадке; externalId сохраняется в товар отдельным update.
// Любая ошибка только логируется: основная операция уже выполнена.
func (s *ProductCatalog) createListing(ctx context.Context, created *domain.Product) *domain.Product {
	if s.listing == nil {
		return created
	}
	externalID, err := s.listing.CreateRemoteListing(ctx, created)
	if err != nil {
		metrics.ListingSyncFailures.WithLabelValues("create").Inc()
		s.log.Warnf(ctx, "listing create failed id=%s err=%v", created.ID, err)
		return created
	}
	if externalID == "" || externalID == created.ShopifyID {
		return created
	}

	link := &domain.ProductPatch{ShopifyID: &externalID}
	saved, err := s.gatewayCall(ctx, "update", func(cctx context.Context) (*domain.Product, error) {
		return s.gateway.Update(cctx, created.ID, link)
	})
	if err != nil {
		metrics.ListingSyncFailures.WithLabelValues("link").Inc()
		s.log.Warnf(ctx, "saving external id failed id=%s external=%s err=%v", created.ID, externalID, err)
		return link.Apply(created)
	}
	return saved
}

// invalidate — после успешной мутации: полный сброс кэша и событие для других экземпляров.
// Событие уходит и при ошибке сброса: остальные экземпляры свой кэш очистят.
func (s *ProductCatalog) invalidate(ctx context.Context, kind domain.ChangeKind, productID string) error {
	var clearErr error
	if err := s.store.ClearAll(ctx); err != nil {
		s.log.Errorf(ctx, "store.ClearAll failed after %s id=%s err=%v", kind, productID, err)
		clearErr = fmt.Errorf("%s %s: %w: %v", kind, productID, domain.ErrStaleCache, err)
	}
	if s.publisher == nil {
		return clearErr
	}

	ev := domain.ChangeEvent{
		ID:        uuid.NewString(),
		Source:    s.instanceID,
		Kind:      kind,
		ProductID: productID,
		At:        s.now().UTC(),
	}
	s.background(ctx, func(bctx context.Context) {
		if err := s.publisher.Publish(bctx, ev); err != nil {
			metrics.ChangeEventsPublished.WithLabelValues("error").Inc()
			s.log.Warnf(bctx, "publish change event failed kind=%s id=%s err=%v", kind, productID, err)
			return
		}
		metrics.ChangeEventsPublished.WithLabelValues("ok").Inc()
	})
	return clearErr
}

// adviseReorder — не больше одной рекомендации на update, асинхронно.
func (s *ProductCatalog) adviseReorder(ctx context.Context, p *domain.Product) {
	adv, ok := domain.NewReorderAdvisory(p, s.now().UTC())
	if !ok || s.notifier == nil {
		return
	}
	metrics.ReorderAdvisories.Inc()
	s.background(ctx, func(bctx context.Context) {
		if err := s.notifier.NotifyReorder(bctx, adv); err != nil {
			s.log.Warnf(bctx, "reorder advisory failed id=%s err=%v", adv.ProductID, err)
		}
	})
}

func (s *ProductCatalog) background(ctx context.Context, fn func(context.Context)) {
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer cancel()
		fn(bctx)
	}()
}

func observeGateway(op string, start time.Time, err error) {
	metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := "ok"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	metrics.GatewayRequests.WithLabelValues(op, result).Inc()
}
