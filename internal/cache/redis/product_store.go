// Пакет redis — ProductStore поверх Redis для нескольких экземпляров сервиса.
// Ключи живут в пространстве текущего поколения: <prefix>:g<gen>:page:<key>,
// <prefix>:g<gen>:entity:<id>. ClearAll делает INCR счётчика поколения,
// старое пространство становится недостижимым и удаляется через SCAN.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Gunvolt24/gemstock/internal/domain"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/Gunvolt24/gemstock/pkg/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// setIfGen — запись только если счётчик поколения равен ожидаемому.
var setIfGen = goredis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == false then cur = '0' end
if cur ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

const scanBatch = 500

type ProductStore struct {
	rdb    goredis.UniversalClient
	prefix string
	log    ports.Logger
}

func NewProductStore(rdb goredis.UniversalClient, prefix string, log ports.Logger) *ProductStore {
	if prefix == "" {
		prefix = "catalog"
	}
	return &ProductStore{rdb: rdb, prefix: prefix, log: log}
}

func (s *ProductStore) GetPage(ctx context.Context, key string) (*domain.PageResult, bool) {
	var page domain.PageResult
	if !s.get(ctx, "page", func(gen uint64) string { return s.pageKey(gen, key) }, &page) {
		return nil, false
	}
	return &page, true
}

func (s *ProductStore) SetPage(ctx context.Context, key string, page *domain.PageResult) error {
	if page == nil {
		return nil
	}
	gen, err := s.Generation(ctx)
	if err != nil {
		return err
	}
	_, err = s.SetPageAt(ctx, gen, key, page)
	return err
}

func (s *ProductStore) SetPageAt(ctx context.Context, gen uint64, key string, page *domain.PageResult) (bool, error) {
	if page == nil {
		return false, nil
	}
	return s.setAt(ctx, "page", gen, s.pageKey(gen, key), page)
}

func (s *ProductStore) GetEntity(ctx context.Context, id string) (*domain.Product, bool) {
	var p domain.Product
	if !s.get(ctx, "entity", func(gen uint64) string { return s.entityKey(gen, id) }, &p) {
		return nil, false
	}
	return &p, true
}

func (s *ProductStore) SetEntity(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID == "" {
		return nil
	}
	gen, err := s.Generation(ctx)
	if err != nil {
		return err
	}
	_, err = s.SetEntityAt(ctx, gen, p)
	return err
}

func (s *ProductStore) SetEntityAt(ctx context.Context, gen uint64, p *domain.Product) (bool, error) {
	if p == nil || p.ID == "" {
		return false, nil
	}
	return s.setAt(ctx, "entity", gen, s.entityKey(gen, p.ID), p)
}

// ClearAll — новое поколение, затем удаление ключей всех прошлых поколений.
func (s *ProductStore) ClearAll(ctx context.Context) error {
	n, err := s.rdb.Incr(ctx, s.genKey()).Result()
	if err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	metrics.CacheOps.WithLabelValues("page", "clear").Inc()

	// ошибка чистки не влияет на корректность: старые ключи уже недостижимы
	if err := s.purgeExcept(ctx, uint64(n)); err != nil {
		s.log.Warnf(ctx, "redis store: purge old generations failed: %v", err)
	}
	return nil
}

func (s *ProductStore) Generation(ctx context.Context) (uint64, error) {
	v, err := s.rdb.Get(ctx, s.genKey()).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	gen, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis generation %q: %w", v, err)
	}
	return gen, nil
}

// Ping — проверка соединения при старте.
func (s *ProductStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// ------вспомогательные функции------

func (s *ProductStore) get(ctx context.Context, kind string, keyFor func(gen uint64) string, dst any) bool {
	gen, err := s.Generation(ctx)
	if err != nil {
		s.log.Warnf(ctx, "redis store: %v", err)
		return false
	}
	data, err := s.rdb.Get(ctx, keyFor(gen)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.CacheOps.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err != nil {
		s.log.Warnf(ctx, "redis store: get %s: %v", kind, err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Warnf(ctx, "redis store: corrupted %s entry: %v", kind, err)
		return false
	}
	metrics.CacheOps.WithLabelValues(kind, "hit").Inc()
	return true
}

func (s *ProductStore) setAt(ctx context.Context, kind string, gen uint64, key string, v any) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", kind, err)
	}
	n, err := setIfGen.Run(ctx, s.rdb, []string{s.genKey(), key}, strconv.FormatUint(gen, 10), data).Int()
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", kind, err)
	}
	if n == 0 {
		metrics.CacheOps.WithLabelValues(kind, "stale_write").Inc()
		return false, nil
	}
	metrics.CacheOps.WithLabelValues(kind, "set").Inc()
	return true, nil
}

func (s *ProductStore) purgeExcept(ctx context.Context, gen uint64) error {
	keep := s.nsPrefix(gen)
	genKey := s.genKey()
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+":g*", scanBatch).Result()
		if err != nil {
			return err
		}
		stale := keys[:0]
		for _, k := range keys {
			if k != genKey && !strings.HasPrefix(k, keep) {
				stale = append(stale, k)
			}
		}
		if len(stale) > 0 {
			if err := s.rdb.Del(ctx, stale...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *ProductStore) genKey() string { return s.prefix + ":gen" }

func (s *ProductStore) nsPrefix(gen uint64) string {
	return s.prefix + ":g" + strconv.FormatUint(gen, 10) + ":"
}

func (s *ProductStore) pageKey(gen uint64, key string) string {
	return s.nsPrefix(gen) + "page:" + key
}

func (s *ProductStore) entityKey(gen uint64, id string) string {
	return s.nsPrefix(gen) + "entity:" + id
}
