package memory

import (
	"context"
	"sync"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/pkg/metrics"
)

// ProductStore — общий для всех координаторов процесса кэш страниц и товаров.
// Без TTL и вытеснения: записи живут до ClearAll.
type ProductStore struct {
	mu       sync.RWMutex
	gen      uint64
	pages    map[string]*domain.PageResult
	entities map[string]*domain.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{
		pages:    make(map[string]*domain.PageResult),
		entities: make(map[string]*domain.Product),
	}
}

func (s *ProductStore) GetPage(_ context.Context, key string) (*domain.PageResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[key]
	if !ok {
		metrics.CacheOps.WithLabelValues("page", "miss").Inc()
		return nil, false
	}
	metrics.CacheOps.WithLabelValues("page", "hit").Inc()
	return page.Clone(), true
}

func (s *ProductStore) SetPage(_ context.Context, key string, page *domain.PageResult) error {
	if page == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putPage(key, page)
	return nil
}

func (s *ProductStore) SetPageAt(_ context.Context, gen uint64, key string, page *domain.PageResult) (bool, error) {
	if page == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		metrics.CacheOps.WithLabelValues("page", "stale_write").Inc()
		return false, nil
	}
	s.putPage(key, page)
	return true, nil
}

func (s *ProductStore) GetEntity(_ context.Context, id string) (*domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.entities[id]
	if !ok {
		metrics.CacheOps.WithLabelValues("entity", "miss").Inc()
		return nil, false
	}
	metrics.CacheOps.WithLabelValues("entity", "hit").Inc()
	return p.Clone(), true
}

func (s *ProductStore) SetEntity(_ context.Context, p *domain.Product) error {
	if p == nil || p.ID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putEntity(p)
	return nil
}

func (s *ProductStore) SetEntityAt(_ context.Context, gen uint64, p *domain.Product) (bool, error) {
	if p == nil || p.ID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		metrics.CacheOps.WithLabelValues("entity", "stale_write").Inc()
		return false, nil
	}
	s.putEntity(p)
	return true, nil
}

// ClearAll — удаляет все ключи обеих карт и начинает новое поколение.
func (s *ProductStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages = make(map[string]*domain.PageResult)
	s.entities = make(map[string]*domain.Product)
	s.gen++

	metrics.CacheOps.WithLabelValues("page", "clear").Inc()
	metrics.CacheEntries.WithLabelValues("page").Set(0)
	metrics.CacheEntries.WithLabelValues("entity").Set(0)
	return nil
}

func (s *ProductStore) Generation(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen, nil
}

// Len — число страниц и товаров в кэше.
func (s *ProductStore) Len() (pages, entities int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages), len(s.entities)
}

// ------вспомогательные функции------

func (s *ProductStore) putPage(key string, page *domain.PageResult) {
	s.pages[key] = page.Clone()
	metrics.CacheOps.WithLabelValues("page", "set").Inc()
	metrics.CacheEntries.WithLabelValues("page").Set(float64(len(s.pages)))
}

func (s *ProductStore) putEntity(p *domain.Product) {
	s.entities[p.ID] = p.Clone()
	metrics.CacheOps.WithLabelValues("entity", "set").Inc()
	metrics.CacheEntries.WithLabelValues("entity").Set(float64(len(s.entities)))
}
