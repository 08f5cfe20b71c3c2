package kafka

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/Gunvolt24/gemstock/internal/usecase"
	"github.com/Gunvolt24/gemstock/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// processPause — пауза перед повтором события, которое не удалось применить.
const processPause = 500 * time.Millisecond

// handleMessage применяет одно событие; true — оффсет можно коммитить.
func (c *Consumer) handleMessage(ctx context.Context, topic string, msg *kafka.Message) bool {
	ctxTimeout, cancel := context.WithTimeout(ctx, c.processTimeout)
	err := c.applier.ApplyChangeEvent(ctxTimeout, msg.Value)
	cancel()

	if err == nil {
		metrics.KafkaMessagesProcessed.WithLabelValues(topic).Inc()
		return true
	}
	metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
	if errors.Is(err, usecase.ErrInvalidEvent) {
		// повтор ничего не исправит
		c.log.Warnf(ctx, "invalid change event partition=%d offset=%d key=%q: %v (skipped)",
			msg.Partition, msg.Offset, msg.Key, err)
		return true
	}
	// хранилище кэша недоступно или таймаут: без коммита, событие придёт снова
	c.log.Warnf(ctx, "apply change event partition=%d offset=%d failed: %v (will retry)", msg.Partition, msg.Offset, err)
	return false
}

func (c *Consumer) commitSafely(ctx context.Context, msg *kafka.Message) {
	if err := c.reader.CommitMessages(ctx, *msg); err != nil {
		c.log.Warnf(ctx, "commit partition=%d offset=%d failed: %v", msg.Partition, msg.Offset, err)
	}
}

// backoff — экспонента с потолком и equal-jitter: половина задержки фиксирована, половина случайна.
type backoff struct {
	initial time.Duration
	max     time.Duration
	cur     time.Duration
	rnd     *rand.Rand
}

func newBackoff(initial, maxDelay time.Duration, rnd *rand.Rand) *backoff {
	return &backoff{initial: initial, max: maxDelay, cur: initial, rnd: rnd}
}

// next — задержка для текущей попытки; следующая будет вдвое больше, но не выше max.
func (b *backoff) next() time.Duration {
	d := b.jitter(b.cur)
	b.cur *= 2
	if b.cur > b.max {
		b.cur = b.max
	}
	return d
}

func (b *backoff) reset() { b.cur = b.initial }

func (b *backoff) jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(b.rnd.Int63n(int64(d-half)+1))
}

// sleepCtx — false, если ctx отменили раньше.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
