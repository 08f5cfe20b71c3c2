//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	cachemem "github.com/Gunvolt24/gemstock/internal/cache/memory"
	"github.com/Gunvolt24/gemstock/internal/domain"
	ikafka "github.com/Gunvolt24/gemstock/internal/kafka"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/Gunvolt24/gemstock/internal/testutil"
	"github.com/Gunvolt24/gemstock/internal/usecase"
	"github.com/Gunvolt24/gemstock/pkg/logger"
)

var reUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func safe(t *testing.T) string { return reUnsafe.ReplaceAllString(t.Name(), "-") }

// 1) Мутация на node-a сбрасывает кэш node-b через топик событий
func TestKafka_RemoteChange_ClearsPeerStore_TC(t *testing.T) {
	ctx, kf, logg := newStack(t)

	topic, group := testutil.UniqueTopicAndGroup(kf.BaseTopic + "-" + safe(t))
	require.NoError(t, testutil.EnsureTopic(ctx, kf.Brokers[0], topic))

	gw := newMemGateway(testutil.MakeProduct(), testutil.MakeProduct())

	pub := ikafka.NewPublisher(&ikafka.PublisherConfig{Brokers: kf.Brokers, Topic: topic})
	t.Cleanup(func() { _ = pub.Close() })
	nodeA := usecase.NewProductCatalog(gw, cachemem.NewProductStore(), logg,
		usecase.WithInstanceID("node-a"), usecase.WithChangePublisher(pub))

	storeB := cachemem.NewProductStore()
	nodeB := usecase.NewProductCatalog(gw, storeB, logg, usecase.WithInstanceID("node-b"))
	startConsumer(t, ctx, kf.Brokers, topic, group, nodeB, logg)

	// прогреваем кэш node-b
	_, err := nodeB.Page(ctx, domain.FilterParams{}, domain.Pagination{})
	require.NoError(t, err)
	pages, _ := storeB.Len()
	require.Equal(t, 1, pages)

	require.NoError(t, nodeA.Delete(ctx, gw.firstID()))
	nodeA.Wait()

	waitEmpty(t, storeB, 20*time.Second)
}

// 2) Мусор и собственные события пропускаются; следующее чужое — применяется
func TestKafka_Skip_InvalidAndOwn_Then_ApplyRemote_TC(t *testing.T) {
	ctx, kf, logg := newStack(t)

	topic, group := testutil.UniqueTopicAndGroup(kf.BaseTopic + "-skip-" + safe(t))
	require.NoError(t, testutil.EnsureTopic(ctx, kf.Brokers[0], topic))

	store := cachemem.NewProductStore()
	node := usecase.NewProductCatalog(newMemGateway(testutil.MakeProduct()), store, logg,
		usecase.WithInstanceID("node-b"))
	startConsumer(t, ctx, kf.Brokers, topic, group, node, logg)

	_, err := node.Page(ctx, domain.FilterParams{}, domain.Pagination{})
	require.NoError(t, err)

	writeMsg(t, ctx, kf.Brokers, topic, []byte("not-a-json"))
	writeMsg(t, ctx, kf.Brokers, topic, eventJSON(t, "node-b"))

	// собственное событие кэш не трогает
	time.Sleep(2 * time.Second)
	pages, _ := store.Len()
	require.Equal(t, 1, pages)

	writeMsg(t, ctx, kf.Brokers, topic, eventJSON(t, "node-a"))
	waitEmpty(t, store, 20*time.Second)
}

// 3) At-least-once: без коммита событие передоставляется после перезапуска
func TestKafka_Redelivery_AfterRestart_NoCommit_TC(t *testing.T) {
	ctx, kf, logg := newStack(t)

	topic, group := testutil.UniqueTopicAndGroup(kf.BaseTopic + "-redelivery-" + safe(t))
	require.NoError(t, testutil.EnsureTopic(ctx, kf.Brokers[0], topic))

	writeMsg(t, ctx, kf.Brokers, topic, eventJSON(t, "node-a"))

	// фаза 1: всегда временная ошибка => оффсет НЕ коммитится
	failing, err := ikafka.NewConsumer(&ikafka.ConsumerConfig{
		Brokers:        kf.Brokers,
		Topic:          topic,
		GroupID:        group,
		StartOffset:    "first",
		ProcessTimeout: 300 * time.Millisecond,
		RetryInitial:   100 * time.Millisecond,
		RetryMax:       300 * time.Millisecond,
	}, alwaysTempFailApplier{}, logg)
	require.NoError(t, err)

	runCtx1, cancelRun1 := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() { _ = failing.Run(runCtx1); close(done) }()
	time.Sleep(2 * time.Second)
	cancelRun1()
	<-done
	_ = failing.Close()

	// фаза 2: та же группа, рабочий каталог
	store := cachemem.NewProductStore()
	node := usecase.NewProductCatalog(newMemGateway(testutil.MakeProduct()), store, logg,
		usecase.WithInstanceID("node-b"))
	_, err = node.Page(ctx, domain.FilterParams{}, domain.Pagination{})
	require.NoError(t, err)

	startConsumer(t, ctx, kf.Brokers, topic, group, node, logg)
	waitEmpty(t, store, 25*time.Second)
}

// -----------------функции-помощники-----------------

func newStack(t *testing.T) (context.Context, *testutil.KafkaEnv, ports.Logger) {
	t.Helper()

	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancelStart)

	kf, stopKF, err := testutil.StartKafkaTC(ctxStart, "catalog-itc")
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopKF(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	logg, closer, err := logger.NewZapLogger(false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	return ctx, kf, logg
}

type applier interface {
	ApplyChangeEvent(ctx context.Context, raw []byte) error
}

func startConsumer(t *testing.T, ctx context.Context, brokers []string, topic, group string, a applier, logg ports.Logger) {
	t.Helper()
	c, err := ikafka.NewConsumer(&ikafka.ConsumerConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        group,
		StartOffset:    "first",
		ProcessTimeout: 3 * time.Second,
		RetryInitial:   200 * time.Millisecond,
		RetryMax:       2 * time.Second,
	}, a, logg)
	require.NoError(t, err)

	runCtx, cancelRun := context.WithCancel(ctx)
	t.Cleanup(func() { cancelRun(); _ = c.Close() })
	go func() { _ = c.Run(runCtx) }()

	// даём консьюмеру присоединиться к группе
	time.Sleep(1500 * time.Millisecond)
}

func waitEmpty(t *testing.T, store *cachemem.ProductStore, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if pages, entities := store.Len(); pages == 0 && entities == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("store was not cleared in %s", timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func eventJSON(t *testing.T, source string) []byte {
	t.Helper()
	raw, err := json.Marshal(domain.ChangeEvent{
		ID: testutil.UniqSuffix(), Source: source, Kind: domain.ChangeUpdated,
		ProductID: "p-1", At: time.Now().UTC(),
	})
	require.NoError(t, err)
	return raw
}

func writeMsg(t *testing.T, ctx context.Context, brokers []string, topic string, payload []byte) {
	t.Helper()
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.LeastBytes{},
	}
	defer w.Close()
	require.NoError(t, w.WriteMessages(ctx, kafka.Message{Value: payload}))
}

// memGateway — шлюз в памяти для связки каталогов.
type memGateway struct {
	mu    sync.Mutex
	items []domain.Product
}

func newMemGateway(items ...domain.Product) *memGateway { return &memGateway{items: items} }

func (g *memGateway) firstID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.items[0].ID
}

func (g *memGateway) List(context.Context) ([]domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Product(nil), g.items...), nil
}

func (g *memGateway) Get(_ context.Context, id string) (*domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == id {
			return g.items[i].Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (g *memGateway) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = append(g.items, *p.Clone())
	return p.Clone(), nil
}

func (g *memGateway) Update(_ context.Context, id string, patch *domain.ProductPatch) (*domain.Product, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == id {
			g.items[i] = *patch.Apply(&g.items[i])
			return g.items[i].Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (g *memGateway) Delete(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.items {
		if g.items[i].ID == id {
			g.items = append(g.items[:i], g.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type tempNetErr struct{}

func (tempNetErr) Error() string   { return "temporary failure" }
func (tempNetErr) Temporary() bool { return true }
func (tempNetErr) Timeout() bool   { return true }

type alwaysTempFailApplier struct{}

func (alwaysTempFailApplier) ApplyChangeEvent(context.Context, []byte) error { return tempNetErr{} }
