package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/Gunvolt24/gemstock/pkg/ctxmeta"
	"github.com/Gunvolt24/gemstock/pkg/metrics"
	"github.com/google/uuid"
)

// DefaultDebounce — окно debounce для изменений фильтров и пагинации.
const DefaultDebounce = 300 * time.Millisecond

// Phase — состояние загрузки координатора.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhasePendingDebounce Phase = "pending_debounce"
	PhaseFetching        Phase = "fetching"
	PhaseResolved        Phase = "resolved"
	PhaseFailed          Phase = "failed"
)

// ViewState — снимок состояния для потребителя (экрана, CLI, теста).
type ViewState struct {
	Phase      Phase               `json:"phase"`
	Filters    domain.FilterParams `json:"filters"`
	Pagination domain.Pagination   `json:"pagination"`
	Loading    bool                `json:"loading"`
	Error      string              `json:"error,omitempty"`
	Result     *domain.PageResult  `json:"result,omitempty"`
}

func (v ViewState) clone() ViewState {
	v.Filters = v.Filters.Clone()
	v.Result = v.Result.Clone()
	return v
}

// ProductCoordinator — состояние одного потребителя каталога: фильтры, страница,
// загрузка, ошибка и последний результат. Изменения фильтров/страницы проходят
// через синхронную проверку кэша и debounce; результат применяется, только если
// его номер запроса последний. Предыдущий запрос при этом отменяется через ctx.
//
// Создаётся в фазе Idle; первая загрузка — Refresh или любое изменение.
type ProductCoordinator struct {
	catalog ports.CatalogService
	store   ports.ProductStore
	log     ports.Logger

	debounce     time.Duration
	fetchTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       ViewState
	seq         uint64
	timer       *time.Timer
	cancelFetch context.CancelFunc
	subs        map[int]chan ViewState
	nextSub     int
	closed      bool
}

// CoordinatorOption — параметры координатора.
type CoordinatorOption func(*ProductCoordinator)

func WithDebounce(d time.Duration) CoordinatorOption {
	return func(c *ProductCoordinator) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

func WithFetchTimeout(d time.Duration) CoordinatorOption {
	return func(c *ProductCoordinator) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

func WithInitialFilters(f domain.FilterParams) CoordinatorOption {
	return func(c *ProductCoordinator) { c.state.Filters = f.Clone() }
}

func WithInitialPagination(p domain.Pagination) CoordinatorOption {
	return func(c *ProductCoordinator) { c.state.Pagination = p.Normalize() }
}

// WithViewID — идентификатор в логах; по умолчанию случайный.
func WithViewID(id string) CoordinatorOption {
	return func(c *ProductCoordinator) { c.ctx = ctxmeta.WithViewID(context.Background(), id) }
}

func NewProductCoordinator(
	catalog ports.CatalogService,
	store ports.ProductStore,
	log ports.Logger,
	opts ...CoordinatorOption,
) *ProductCoordinator {
	c := &ProductCoordinator{
		catalog:      catalog,
		store:        store,
		log:          log,
		debounce:     DefaultDebounce,
		fetchTimeout: defaultFetchTimeout,
		state: ViewState{
			Phase:      PhaseIdle,
			Pagination: domain.Pagination{}.Normalize(),
		},
		subs: make(map[int]chan ViewState),
	}
	for _, opt := range opts {
		opt(c)
	}
	base := c.ctx
	if base == nil {
		base = ctxmeta.WithViewID(context.Background(), uuid.NewString())
	}
	c.ctx, c.cancel = context.WithCancel(base)
	return c
}

// Snapshot — копия текущего состояния.
func (c *ProductCoordinator) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe — канал снимков после каждого перехода. Буфер 1, медленный читатель
// получает только последний снимок. unsubscribe закрывает канал.
func (c *ProductCoordinator) Subscribe() (<-chan ViewState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan ViewState, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// SetFilters — новые фильтры; страница сбрасывается на первую.
func (c *ProductCoordinator) SetFilters(f domain.FilterParams) {
	c.change(func(s *ViewState) {
		s.Filters = f.Clone()
		s.Pagination.Page = 1
	})
}

// UpdateFilters — точечное изменение фильтров; страница сбрасывается на первую.
func (c *ProductCoordinator) UpdateFilters(fn func(*domain.FilterParams)) {
	c.change(func(s *ViewState) {
		f := s.Filters.Clone()
		fn(&f)
		s.Filters = f
		s.Pagination.Page = 1
	})
}

func (c *ProductCoordinator) SetPage(page int) {
	c.change(func(s *ViewState) { s.Pagination.Page = page })
}

// SetLimit — размер страницы; страница сбрасывается на первую.
func (c *ProductCoordinator) SetLimit(limit int) {
	c.change(func(s *ViewState) {
		s.Pagination.Limit = limit
		s.Pagination.Page = 1
	})
}

func (c *ProductCoordinator) SetPagination(p domain.Pagination) {
	c.change(func(s *ViewState) {
		s.Pagination.Page = p.Page
		s.Pagination.Limit = p.Limit
	})
}

// Refresh — повторить текущий запрос обычным путём (кэш, затем debounce).
func (c *ProductCoordinator) Refresh() {
	c.change(func(*ViewState) {})
}

// Refetch — немедленная загрузка из шлюза в обход кэша и debounce.
func (c *ProductCoordinator) Refetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.scheduleLocked(true)
}

// AddProduct — создать товар. Ошибка возвращается вызывающему (*domain.UserError)
// и отражается в состоянии; кэш при ошибке шлюза не трогается.
// При domain.ErrStaleCache товар уже создан: он возвращается вместе с ошибкой, перезагрузка идёт.
func (c *ProductCoordinator) AddProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	created, err := c.catalog.Create(c.withView(ctx), p)
	return created, c.afterMutation(ctx, "add the product", err)
}

// UpdateProduct — частичное обновление: меняются только заданные поля патча.
func (c *ProductCoordinator) UpdateProduct(ctx context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	updated, err := c.catalog.Update(c.withView(ctx), id, patch)
	return updated, c.afterMutation(ctx, "update the product", err)
}

func (c *ProductCoordinator) DeleteProduct(ctx context.Context, id string) error {
	err := c.catalog.Delete(c.withView(ctx), id)
	return c.afterMutation(ctx, "delete the product", err)
}

// afterMutation — перезагрузка после записи в бэкенд (в том числе когда не сбросился кэш).
func (c *ProductCoordinator) afterMutation(ctx context.Context, op string, err error) error {
	if err == nil {
		c.Refetch()
		return nil
	}
	ue := c.failMutation(ctx, op, err)
	if errors.Is(err, domain.ErrStaleCache) {
		c.Refetch()
	}
	return ue
}

// GetProduct — товар по id: кэш сущностей, затем шлюз. Ошибка только в состоянии.
func (c *ProductCoordinator) GetProduct(ctx context.Context, id string) (*domain.Product, bool) {
	ctx = c.withView(ctx)
	if p, ok := c.store.GetEntity(ctx, id); ok {
		c.clearError()
		return p, true
	}
	p, err := c.catalog.Product(ctx, id)
	if err != nil {
		c.log.Warnf(ctx, "load product failed id=%s err=%v", id, err)
		c.mu.Lock()
		c.state.Error = domain.UserMessage("load the product", err)
		c.publishLocked()
		c.mu.Unlock()
		return nil, false
	}
	c.clearError()
	return p, true
}

// Categories — категории вариантов текущей загруженной страницы.
func (c *ProductCoordinator) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Result == nil {
		return []string{}
	}
	return domain.Categories(c.state.Result.Items)
}

// Close — остановить таймер и текущую загрузку, закрыть подписки.
func (c *ProductCoordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTimerLocked()
	c.cancelInFlightLocked()
	c.cancel()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// ------вспомогательные функции------

func (c *ProductCoordinator) change(mut func(*ViewState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	mut(&c.state)
	c.state.Pagination = c.state.Pagination.Normalize()
	c.scheduleLocked(false)
}

// scheduleLocked — вход в PendingDebounce: новый номер запроса, отмена прежних
// таймера и загрузки. Попадание в кэш сразу даёт Resolved; иначе таймер
// (или немедленная загрузка при immediate).
func (c *ProductCoordinator) scheduleLocked(immediate bool) {
	c.seq++
	seq := c.seq
	c.stopTimerLocked()
	c.cancelInFlightLocked()

	if !immediate {
		key := domain.PageKey(c.state.Filters, c.state.Pagination)
		if page, ok := c.store.GetPage(c.ctx, key); ok {
			metrics.CoordinatorFetches.WithLabelValues("cache_hit").Inc()
			c.resolveLocked(page)
			c.publishLocked()
			return
		}
	}

	c.state.Phase = PhasePendingDebounce
	c.state.Loading = true
	if immediate || c.debounce == 0 {
		c.startFetchLocked(seq)
		return
	}
	c.publishLocked()
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(seq) })
}

func (c *ProductCoordinator) fire(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// таймер мог сработать одновременно с новым изменением
	if c.closed || seq != c.seq {
		return
	}
	c.timer = nil
	c.startFetchLocked(seq)
}

func (c *ProductCoordinator) startFetchLocked(seq uint64) {
	f := c.state.Filters.Clone()
	p := c.state.Pagination
	key := domain.PageKey(f, p)

	gen, err := c.store.Generation(c.ctx)
	genOK := err == nil
	if !genOK {
		c.log.Warnf(c.ctx, "store.Generation failed, result will not be cached: %v", err)
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
	c.cancelFetch = cancel
	c.state.Phase = PhaseFetching
	c.state.Loading = true
	c.publishLocked()

	go c.fetch(ctx, cancel, seq, gen, genOK, key, f, p)
}

func (c *ProductCoordinator) fetch(
	ctx context.Context,
	cancel context.CancelFunc,
	seq, gen uint64,
	genOK bool,
	key string,
	f domain.FilterParams,
	p domain.Pagination,
) {
	defer cancel()
	page, err := c.catalog.FetchPage(ctx, f, p)

	// устаревший результат не попадает ни в кэш, ни в состояние
	if !c.isCurrent(seq) {
		metrics.CoordinatorFetches.WithLabelValues("stale_discarded").Inc()
		c.log.Infof(c.ctx, "stale page discarded key=%s", key)
		return
	}
	if err == nil && genOK {
		if _, werr := c.store.SetPageAt(c.ctx, gen, key, page); werr != nil {
			c.log.Warnf(c.ctx, "store.SetPageAt failed key=%s err=%v", key, werr)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		metrics.CoordinatorFetches.WithLabelValues("stale_discarded").Inc()
		return
	}
	c.cancelFetch = nil

	if err != nil {
		metrics.CoordinatorFetches.WithLabelValues("failed").Inc()
		c.log.Warnf(c.ctx, "load products failed key=%s err=%v", key, err)
		c.state.Phase = PhaseFailed
		c.state.Loading = false
		c.state.Error = domain.UserMessage("load products", err)
		c.publishLocked()
		return
	}

	metrics.CoordinatorFetches.WithLabelValues("resolved").Inc()
	c.resolveLocked(page)
	c.publishLocked()
}

func (c *ProductCoordinator) isCurrent(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && seq == c.seq
}

func (c *ProductCoordinator) resolveLocked(page *domain.PageResult) {
	c.state.Phase = PhaseResolved
	c.state.Loading = false
	c.state.Error = ""
	c.state.Result = page
	c.state.Pagination.TotalItems = page.TotalElements
	c.state.Pagination.TotalPages = page.TotalPages
}

func (c *ProductCoordinator) failMutation(ctx context.Context, op string, err error) error {
	ue := domain.NewUserError(op, err)
	c.log.Warnf(c.withView(ctx), "%s failed: %v", op, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.state.Error = ue.Message
		c.publishLocked()
	}
	return ue
}

// clearError — успешная операция снимает ошибку прошлой.
func (c *ProductCoordinator) clearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Error == "" {
		return
	}
	c.state.Error = ""
	c.publishLocked()
}

// publishLocked — последний снимок каждому подписчику без блокировки.
func (c *ProductCoordinator) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.state.clone()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *ProductCoordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *ProductCoordinator) cancelInFlightLocked() {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
}

func (c *ProductCoordinator) withView(ctx context.Context) context.Context {
	if id, ok := ctxmeta.ViewIDFromContext(c.ctx); ok {
		return ctxmeta.WithViewID(ctx, id)
	}
	return ctx
}
