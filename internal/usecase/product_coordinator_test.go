package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gunvolt24/gemstock/internal/cache/memory"
	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports/mocks"
	"github.com/Gunvolt24/gemstock/internal/usecase"
	"github.com/golang/mock/gomock"
)

// fakeCatalog — FetchPage с задержкой по значению поиска; ctx игнорируется,
// как у медленной сети без отмены.
type fakeCatalog struct {
	mu      sync.Mutex
	calls   []domain.FilterParams
	delays  map[string]time.Duration
	err     error
	all     []domain.Product
	fetched chan domain.FilterParams
}

func newFakeCatalog(all []domain.Product) *fakeCatalog {
	return &fakeCatalog{all: all, delays: map[string]time.Duration{}, fetched: make(chan domain.FilterParams, 16)}
}

func (f *fakeCatalog) FetchPage(_ context.Context, fp domain.FilterParams, p domain.Pagination) (*domain.PageResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fp)
	delay, err := f.delays[fp.Search], f.err
	f.mu.Unlock()

	time.Sleep(delay)
	defer func() { f.fetched <- fp }()
	if err != nil {
		return nil, err
	}
	return domain.BuildPage(f.all, fp, p), nil
}

func (f *fakeCatalog) Page(ctx context.Context, fp domain.FilterParams, p domain.Pagination) (*domain.PageResult, error) {
	return f.FetchPage(ctx, fp, p)
}
func (f *fakeCatalog) Product(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}
func (f *fakeCatalog) Create(context.Context, *domain.Product) (*domain.Product, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeCatalog) Update(context.Context, string, *domain.ProductPatch) (*domain.Product, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeCatalog) Delete(context.Context, string) error { return errors.New("not implemented") }

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func named(names ...string) []domain.Product {
	out := make([]domain.Product, 0, len(names))
	for i, n := range names {
		out = append(out, domain.Product{ID: fmt.Sprintf("id-%d", i), ProductType: domain.TypeJewelry, Name: n, Category: "Rings"})
	}
	return out
}

// waitState — ждать снимок, удовлетворяющий условию.
func waitState(t *testing.T, c *usecase.ProductCoordinator, timeout time.Duration, cond func(usecase.ViewState) bool) usecase.ViewState {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		s := c.Snapshot()
		if cond(s) {
			return s
		}
		if time.Now().After(deadline) {
			t.Fatalf("state not reached in %s, last: phase=%s err=%q", timeout, s.Phase, s.Error)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func resolved(s usecase.ViewState) bool { return s.Phase == usecase.PhaseResolved }

func TestCoordinator_IdleUntilFirstChange(t *testing.T) {
	fc := newFakeCatalog(named("a"))
	c := usecase.NewProductCoordinator(fc, memory.NewProductStore(), noopLogger{}, usecase.WithDebounce(10*time.Millisecond))
	defer c.Close()

	time.Sleep(30 * time.Millisecond)
	if s := c.Snapshot(); s.Phase != usecase.PhaseIdle || fc.callCount() != 0 {
		t.Fatalf("new coordinator must stay idle, phase=%s calls=%d", s.Phase, fc.callCount())
	}
	c.Refresh()
	waitState(t, c, time.Second, resolved)
}

func TestCoordinator_DebounceCollapsesChanges(t *testing.T) {
	fc := newFakeCatalog(named("ruby ring", "rose quartz", "ruby pendant"))
	c := usecase.NewProductCoordinator(fc, memory.NewProductStore(), noopLogger{}, usecase.WithDebounce(300*time.Millisecond))
	defer c.Close()

	c.SetFilters(domain.FilterParams{Search: "r"})
	time.Sleep(50 * time.Millisecond)
	c.SetFilters(domain.FilterParams{Search: "ru"})
	time.Sleep(50 * time.Millisecond)
	c.SetFilters(domain.FilterParams{Search: "ruby"})

	if s := c.Snapshot(); s.Phase != usecase.PhasePendingDebounce || !s.Loading {
		t.Fatalf("expected pending debounce, got %s", s.Phase)
	}

	s := waitState(t, c, 2*time.Second, resolved)
	time.Sleep(100 * time.Millisecond)

	if n := fc.callCount(); n != 1 {
		t.Fatalf("expected exactly one fetch, got %d", n)
	}
	if fc.calls[0].Search != "ruby" {
		t.Fatalf("fetch must use the last filters, got %q", fc.calls[0].Search)
	}
	if s.Result.TotalElements != 2 || s.Pagination.TotalItems != 2 || s.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected result: %+v pagination=%+v", s.Result, s.Pagination)
	}
}

func TestCoordinator_CacheHitIsSynchronous(t *testing.T) {
	fc := newFakeCatalog(named("a", "b"))
	store := memory.NewProductStore()
	f := domain.FilterParams{Search: "a"}
	p := domain.Pagination{Page: 1, Limit: 12}
	cached := &domain.PageResult{Items: named("cached"), TotalElements: 1, TotalPages: 1, PageSize: 12, PageNumber: 1}
	_ = store.SetPage(context.Background(), domain.PageKey(f, p), cached)

	c := usecase.NewProductCoordinator(fc, store, noopLogger{}, usecase.WithDebounce(time.Hour))
	defer c.Close()

	c.SetFilters(f)
	s := c.Snapshot()
	if s.Phase != usecase.PhaseResolved || s.Loading || s.Result.Items[0].Name != "cached" {
		t.Fatalf("cache hit must resolve immediately, got phase=%s", s.Phase)
	}
	if fc.callCount() != 0 {
		t.Fatalf("cache hit must not call the gateway")
	}
}

func TestCoordinator_ResultIsCachedForOtherConsumers(t *testing.T) {
	fc := newFakeCatalog(named("a", "b"))
	store := memory.NewProductStore()

	first := usecase.NewProductCoordinator(fc, store, noopLogger{}, usecase.WithDebounce(5*time.Millisecond))
	defer first.Close()
	first.SetPage(1)
	waitState(t, first, time.Second, resolved)

	second := usecase.NewProductCoordinator(fc, store, noopLogger{}, usecase.WithDebounce(time.Hour))
	defer second.Close()
	second.Refresh()
	if s := second.Snapshot(); s.Phase != usecase.PhaseResolved {
		t.Fatalf("second consumer must hit the shared store, got %s", s.Phase)
	}
	if fc.callCount() != 1 {
		t.Fatalf("expected one fetch in total, got %d", fc.callCount())
	}
}

func TestCoordinator_StaleResponseGuard(t *testing.T) {
	fc := newFakeCatalog(named("slow stone", "fast ring"))
	fc.delays["slow"] = 500 * time.Millisecond
	fc.delays["fast"] = 200 * time.Millisecond
	store := memory.NewProductStore()

	c := usecase.NewProductCoordinator(fc, store, noopLogger{}, usecase.WithDebounce(0))
	defer c.Close()

	start := time.Now()
	c.SetFilters(domain.FilterParams{Search: "slow"}) // A: завершится к ~500ms
	time.Sleep(20 * time.Millisecond)
	c.SetFilters(domain.FilterParams{Search: "fast"}) // B: завершится к ~220ms

	// оба запроса доходят до конца
	<-fc.fetched
	<-fc.fetched
	time.Sleep(600*time.Millisecond - time.Since(start))

	s := c.Snapshot()
	if s.Phase != usecase.PhaseResolved || s.Filters.Search != "fast" {
		t.Fatalf("expected resolved state for B, got phase=%s search=%q", s.Phase, s.Filters.Search)
	}
	if len(s.Result.Items) != 1 || s.Result.Items[0].Name != "fast ring" {
		t.Fatalf("stale A result leaked into state: %+v", s.Result.Items)
	}

	pg := domain.Pagination{Page: 1, Limit: domain.DefaultPageLimit}
	if _, ok := store.GetPage(context.Background(), domain.PageKey(domain.FilterParams{Search: "slow"}, pg)); ok {
		t.Fatalf("superseded fetch must not be cached")
	}
	if _, ok := store.GetPage(context.Background(), domain.PageKey(domain.FilterParams{Search: "fast"}, pg)); !ok {
		t.Fatalf("latest fetch must be cached")
	}
}

func TestCoordinator_FailureKeepsLastResult(t *testing.T) {
	fc := newFakeCatalog(named("a", "b"))
	c := usecase.NewProductCoordinator(fc, memory.NewProductStore(), noopLogger{}, usecase.WithDebounce(0))
	defer c.Close()

	c.Refresh()
	good := waitState(t, c, time.Second, resolved)

	fc.mu.Lock()
	fc.err = fmt.Errorf("dial tcp: %w", domain.ErrNetwork)
	fc.mu.Unlock()

	c.SetPage(2)
	s := waitState(t, c, time.Second, func(s usecase.ViewState) bool { return s.Phase == usecase.PhaseFailed })
	if s.Loading || s.Error == "" {
		t.Fatalf("failed state must carry a message and stop loading: %+v", s)
	}
	if s.Error == fc.err.Error() {
		t.Fatalf("raw error must not be shown to the user")
	}
	if s.Result == nil || len(s.Result.Items) != len(good.Result.Items) {
		t.Fatalf("last good result must be preserved")
	}

	// повтор после восстановления
	fc.mu.Lock()
	fc.err = nil
	fc.mu.Unlock()
	c.Refresh()
	if s := waitState(t, c, time.Second, resolved); s.Error != "" {
		t.Fatalf("error must be cleared after success, got %q", s.Error)
	}
}

func TestCoordinator_PaginationAndFilterReset(t *testing.T) {
	all := make([]string, 25)
	for i := range all {
		all[i] = fmt.Sprintf("item %02d", i)
	}
	fc := newFakeCatalog(named(all...))
	c := usecase.NewProductCoordinator(fc, memory.NewProductStore(), noopLogger{},
		usecase.WithDebounce(0), usecase.WithInitialPagination(domain.Pagination{Page: 3, Limit: 12}))
	defer c.Close()

	c.Refresh()
	s := waitState(t, c, time.Second, resolved)
	if len(s.Result.Items) != 1 || s.Result.Items[0].Name != "item 24" || s.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected page 3: %+v", s.Result)
	}

	c.UpdateFilters(func(f *domain.FilterParams) { f.Search = "item 1" })
	s = waitState(t, c, time.Second, func(s usecase.ViewState) bool { return resolved(s) && s.Filters.Search == "item 1" })
	if s.Pagination.Page != 1 {
		t.Fatalf("filter change must reset page to 1, got %d", s.Pagination.Page)
	}

	// item 10..19: вторая страница по 5
	c.SetPagination(domain.Pagination{Page: 2, Limit: 5})
	s = waitState(t, c, time.Second, func(s usecase.ViewState) bool {
		return resolved(s) && s.Result.PageNumber == 2 && s.Result.PageSize == 5
	})
	if len(s.Result.Items) != 5 || s.Result.Items[0].Name != "item 15" || s.Pagination.TotalPages != 2 {
		t.Fatalf("unexpected page 2 of 5: %+v", s.Result)
	}
	if s.Filters.Search != "item 1" {
		t.Fatalf("SetPagination must keep filters, got %+v", s.Filters)
	}
}

func TestCoordinator_SubscribeGetsLatest(t *testing.T) {
	fc := newFakeCatalog(named("a"))
	c := usecase.NewProductCoordinator(fc, memory.NewProductStore(), noopLogger{}, usecase.WithDebounce(0))

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	c.Refresh()
	deadline := time.After(time.Second)
	for {
		select {
		case s := <-updates:
			if s.Phase == usecase.PhaseResolved {
				c.Close()
				if _, open := <-updates; open {
					t.Fatalf("channel must be closed after Close")
				}
				return
			}
		case <-deadline:
			t.Fatalf("no resolved snapshot received")
		}
	}
}

func TestCoordinator_MutationInvalidatesAndRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockCatalogService(ctrl)
	store := memory.NewProductStore()
	keys := fillStore(t, store)

	c := usecase.NewProductCoordinator(svc, store, noopLogger{}, usecase.WithDebounce(time.Hour))
	defer c.Close()

	in := &domain.Product{ProductType: domain.TypeJewelry, Name: "Ring"}
	refetched := make(chan struct{})
	gomock.InOrder(
		svc.EXPECT().Create(gomock.Any(), in).DoAndReturn(func(ctx context.Context, p *domain.Product) (*domain.Product, error) {
			_ = store.ClearAll(ctx)
			return &domain.Product{ID: "new", Name: p.Name}, nil
		}),
		svc.EXPECT().FetchPage(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, domain.FilterParams, domain.Pagination) (*domain.PageResult, error) {
				defer close(refetched)
				return &domain.PageResult{Items: named("Ring"), TotalElements: 1, TotalPages: 1}, nil
			}),
	)

	got, err := c.AddProduct(context.Background(), in)
	if err != nil || got.ID != "new" {
		t.Fatalf("AddProduct: err=%v got=%+v", err, got)
	}
	assertStoreEmpty(t, store, keys)

	// refetch без debounce (окно — час)
	select {
	case <-refetched:
	case <-time.After(time.Second):
		t.Fatalf("mutation must trigger an immediate refetch")
	}
	waitState(t, c, time.Second, resolved)
}

func TestCoordinator_MutationErrorIsReturnedAndShown(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockCatalogService(ctrl)
	store := memory.NewProductStore()
	keys := fillStore(t, store)

	svc.EXPECT().Delete(gomock.Any(), "p-00").Return(fmt.Errorf("502: %w", domain.ErrNetwork))

	c := usecase.NewProductCoordinator(svc, store, noopLogger{}, usecase.WithDebounce(time.Hour))
	defer c.Close()

	err := c.DeleteProduct(context.Background(), "p-00")
	var ue *domain.UserError
	if !errors.As(err, &ue) || !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected *UserError wrapping ErrNetwork, got %v", err)
	}
	if s := c.Snapshot(); s.Error != ue.Message {
		t.Fatalf("error must be reflected in state, got %q", s.Error)
	}
	if _, ok := store.GetPage(context.Background(), keys[0]); !ok {
		t.Fatalf("failed mutation must not touch the store")
	}
}

// Обновление только quantity у камня: остальные поля не уходят в шлюз и не затираются,
// рекомендация дозаказа приходит ровно одна.
func TestCoordinator_UpdateQuantityOnlyFiresReorder(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockProductGateway(ctrl)
	notifier := mocks.NewMockReorderNotifier(ctrl)
	store := memory.NewProductStore()

	stored := &domain.Product{
		ID: "s1", ProductType: domain.TypeLooseStone, Name: "Sapphire",
		AcquisitionDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		Cost:            300, Price: 450, GemstoneType: "Sapphire",
		Quantity: domain.IntPtr(6), ReorderThreshold: domain.IntPtr(3),
	}
	gw.EXPECT().Update(gomock.Any(), "s1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, patch *domain.ProductPatch) (*domain.Product, error) {
			onlyQty := domain.ProductPatch{Quantity: patch.Quantity}
			if patch.Quantity == nil || *patch != onlyQty {
				t.Errorf("patch must carry quantity only, got %+v", patch)
			}
			stored = patch.Apply(stored)
			return stored.Clone(), nil
		})
	gw.EXPECT().List(gomock.Any()).DoAndReturn(func(context.Context) ([]domain.Product, error) {
		return []domain.Product{*stored.Clone()}, nil
	}).AnyTimes()

	advised := make(chan domain.ReorderAdvisory, 2)
	notifier.EXPECT().NotifyReorder(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a domain.ReorderAdvisory) error {
			advised <- a
			return nil
		}).Times(1)

	catalog := usecase.NewProductCatalog(gw, store, noopLogger{}, usecase.WithReorderNotifier(notifier))
	c := usecase.NewProductCoordinator(catalog, store, noopLogger{}, usecase.WithDebounce(time.Hour))
	defer c.Close()

	got, err := c.UpdateProduct(context.Background(), "s1", &domain.ProductPatch{Quantity: domain.IntPtr(2)})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if *got.Quantity != 2 || got.Name != "Sapphire" || got.Price != 450 || got.ProductType != domain.TypeLooseStone {
		t.Fatalf("untouched fields must survive: %+v", got)
	}
	waitState(t, c, time.Second, resolved)
	catalog.Wait()

	select {
	case a := <-advised:
		if a.ProductID != "s1" || a.Quantity != 2 || a.Threshold != 3 {
			t.Fatalf("unexpected advisory: %+v", a)
		}
	default:
		t.Fatalf("reorder advisory expected")
	}
}

func TestCoordinator_StaleCacheMutationStillRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockCatalogService(ctrl)

	refetched := make(chan struct{})
	svc.EXPECT().Update(gomock.Any(), "p-1", gomock.Any()).
		Return(&domain.Product{ID: "p-1", Name: "Opal"}, fmt.Errorf("updated p-1: %w", domain.ErrStaleCache))
	svc.EXPECT().FetchPage(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.FilterParams, domain.Pagination) (*domain.PageResult, error) {
			defer close(refetched)
			return &domain.PageResult{Items: named("Opal"), TotalElements: 1, TotalPages: 1}, nil
		})

	c := usecase.NewProductCoordinator(svc, memory.NewProductStore(), noopLogger{}, usecase.WithDebounce(time.Hour))
	defer c.Close()

	got, err := c.UpdateProduct(context.Background(), "p-1", &domain.ProductPatch{Name: domain.StringPtr("Opal")})
	var ue *domain.UserError
	if !errors.As(err, &ue) || !errors.Is(err, domain.ErrStaleCache) {
		t.Fatalf("expected *UserError wrapping ErrStaleCache, got %v", err)
	}
	if got == nil || got.ID != "p-1" {
		t.Fatalf("saved product must be returned, got %+v", got)
	}
	select {
	case <-refetched:
	case <-time.After(time.Second):
		t.Fatalf("stale cache must still trigger a refetch")
	}
}

func TestCoordinator_GetProduct(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockCatalogService(ctrl)
	store := memory.NewProductStore()
	_ = store.SetEntity(context.Background(), &domain.Product{ID: "cached", Name: "Jade idol"})

	svc.EXPECT().Product(gomock.Any(), "remote").Return(&domain.Product{ID: "remote"}, nil)
	svc.EXPECT().Product(gomock.Any(), "missing").Return(nil, domain.ErrNotFound)

	c := usecase.NewProductCoordinator(svc, store, noopLogger{})
	defer c.Close()

	if p, ok := c.GetProduct(context.Background(), "cached"); !ok || p.Name != "Jade idol" {
		t.Fatalf("entity cache hit expected")
	}
	if p, ok := c.GetProduct(context.Background(), "remote"); !ok || p.ID != "remote" {
		t.Fatalf("gateway fetch expected")
	}
	if p, ok := c.GetProduct(context.Background(), "missing"); ok || p != nil {
		t.Fatalf("missing product must return absent")
	}
	if s := c.Snapshot(); s.Error == "" {
		t.Fatalf("failed lookup must set error state")
	}
}

func TestCoordinator_GetProductClearsPreviousError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockCatalogService(ctrl)

	svc.EXPECT().Product(gomock.Any(), "missing").Return(nil, domain.ErrNotFound)
	svc.EXPECT().Product(gomock.Any(), "remote").Return(&domain.Product{ID: "remote"}, nil)

	c := usecase.NewProductCoordinator(svc, memory.NewProductStore(), noopLogger{})
	defer c.Close()

	if _, ok := c.GetProduct(context.Background(), "missing"); ok {
		t.Fatalf("missing product must return absent")
	}
	if s := c.Snapshot(); s.Error == "" {
		t.Fatalf("failed lookup must set error state")
	}
	if _, ok := c.GetProduct(context.Background(), "remote"); !ok {
		t.Fatalf("gateway fetch expected")
	}
	if s := c.Snapshot(); s.Error != "" {
		t.Fatalf("successful lookup must clear error, got %q", s.Error)
	}
}

func TestCoordinator_CategoriesOfCurrentPage(t *testing.T) {
	all := []domain.Product{
		{ID: "1", ProductType: domain.TypeJewelry, Name: "a", Category: "Rings"},
		{ID: "2", ProductType: domain.TypeLooseStone, Name: "b", GemstoneType: "Emerald"},
		{ID: "3", ProductType: domain.TypeCarvedIdol, Name: "c", Material: "Jade"},
	}
	fc := newFakeCatalog(all)
	c := usecase.NewProductCoordinator(fc, memory.NewProductStore(), noopLogger{},
		usecase.WithDebounce(0), usecase.WithInitialPagination(domain.Pagination{Page: 1, Limit: 2}))
	defer c.Close()

	if got := c.Categories(); len(got) != 0 {
		t.Fatalf("no page loaded yet, got %v", got)
	}
	c.Refresh()
	waitState(t, c, time.Second, resolved)
	got := c.Categories()
	if len(got) != 2 || got[0] != "Emerald" || got[1] != "Rings" {
		t.Fatalf("expected [Emerald Rings], got %v", got)
	}
}
