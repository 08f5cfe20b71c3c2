package kafka

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/Gunvolt24/gemstock/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// Проверка, что Consumer удовлетворяет интерфейсу верхнего уровня (порт приложения).
var _ ports.ChangeConsumer = (*Consumer)(nil)

// reader — минимальный контракт над источником (kafka.Reader),
// чтобы легко подменять его моками в тестах.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// eventApplier — каталог, применяющий событие изменения (сброс кэша).
type eventApplier interface {
	ApplyChangeEvent(ctx context.Context, raw []byte) error
}

// Consumer — чтение событий изменения каталога от других экземпляров.
type Consumer struct {
	reader         reader
	applier        eventApplier
	log            ports.Logger
	processTimeout time.Duration
	pause          time.Duration // между повторами неприменённого события
	fetchRetry     *backoff
	closeOnce      sync.Once
}

// NewConsumer — конструктор. Reader настроен на ручной коммит оффсетов.
func NewConsumer(cfg *ConsumerConfig, applier eventApplier, log ports.Logger) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newConsumer(kafka.NewReader(cfg.ReaderConfig()), cfg, applier, log), nil
}

func newConsumer(r reader, cfg *ConsumerConfig, applier eventApplier, log ports.Logger) *Consumer {
	c := cfg.withDefaults()
	return &Consumer{
		reader:         r,
		applier:        applier,
		log:            log,
		processTimeout: c.ProcessTimeout,
		pause:          min(c.RetryInitial, processPause),
		fetchRetry:     newBackoff(c.RetryInitial, c.RetryMax, rand.New(rand.NewSource(time.Now().UnixNano()))),
	}
}

// Run — основной цикл до отмены ctx:
// 1) читаем сообщение без авто-коммита;
// 2) событие применено → CommitMessages;
// 3) некорректное событие → лог и CommitMessages (пропускаем навсегда);
// 4) временная ошибка → без коммита, пауза и повторная доставка (at-least-once).
func (c *Consumer) Run(ctx context.Context) error {
	rc := c.reader.Config()
	c.log.Infof(ctx, "change consumer started topic=%s group_id=%s brokers=%v", rc.Topic, rc.GroupID, rc.Brokers)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sleep := c.fetchRetry.next()
			c.log.Warnf(ctx, "fetch failed: %v (will retry in %s)", err, sleep)
			if !sleepCtx(ctx, sleep) {
				return ctx.Err()
			}
			continue
		}
		c.fetchRetry.reset()
		metrics.KafkaMessagesConsumed.WithLabelValues(rc.Topic).Inc()

		if c.handleMessage(ctx, rc.Topic, &msg) {
			c.commitSafely(ctx, &msg)
			continue
		}
		if !sleepCtx(ctx, c.fetchRetry.jitter(c.pause)) {
			return ctx.Err()
		}
	}
}

// Close — закрывает reader. Вызывается при остановке приложения.
func (c *Consumer) Close() (retErr error) {
	c.closeOnce.Do(func() {
		retErr = c.reader.Close()
	})
	return retErr
}
