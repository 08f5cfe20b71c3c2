package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gunvolt24/gemstock/config"
	cachemem "github.com/Gunvolt24/gemstock/internal/cache/memory"
	cacheredis "github.com/Gunvolt24/gemstock/internal/cache/redis"
	gwrest "github.com/Gunvolt24/gemstock/internal/gateway/rest"
	"github.com/Gunvolt24/gemstock/internal/gateway/shopify"
	"github.com/Gunvolt24/gemstock/internal/kafka"
	"github.com/Gunvolt24/gemstock/internal/notify"
	"github.com/Gunvolt24/gemstock/internal/ports"
	"github.com/Gunvolt24/gemstock/internal/repo/postgres"
	rest "github.com/Gunvolt24/gemstock/internal/transport/http"
	"github.com/Gunvolt24/gemstock/internal/usecase"
	"github.com/Gunvolt24/gemstock/pkg/logger"
	"github.com/Gunvolt24/gemstock/pkg/metrics"
	"github.com/Gunvolt24/gemstock/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// App — собранное приложение и его внешние интерфейсы (HTTP, consumer).
type App struct {
	Logger          ports.Logger         // логгер
	HTTPServer      *http.Server         // HTTP-сервер
	KafkaConsumer   ports.ChangeConsumer // консьюмер событий изменений; nil — Kafka выключена
	gracefulTimeout time.Duration        // время ожидания завершения HTTP-сервера
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}

	// Очистка копится по мере сборки и выполняется в обратном порядке.
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		if cerr := cleanupLogger(); cerr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cerr)
		}
	}
	fail := func(err error) (*App, Cleanup, error) {
		cleanup()
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	if cfg.Tracing.Enabled {
		shutdownTrace, tErr := telemetry.SetupTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			closers = append(closers, func() {
				if terr := shutdownTrace(context.Background()); terr != nil {
					logg.Warnf(ctx, "shutdown tracing: %v", terr)
				}
			})
		}
	}

	// Хранилище кэша.
	store, closeStore, err := newStore(ctx, cfg.Cache, logg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	// Шлюз товаров.
	gateway, err := gwrest.NewClient(gwrest.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		Token:     cfg.Gateway.Token,
		Timeout:   cfg.Gateway.Timeout,
		RateLimit: cfg.Gateway.RateLimit,
		Burst:     cfg.Gateway.Burst,
		Retries:   cfg.Gateway.Retries,
		Backoff:   cfg.Gateway.Backoff,
	}, nil, logg)
	if err != nil {
		return fail(err)
	}

	instanceID := cfg.Catalog.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	opts := []usecase.CatalogOption{
		usecase.WithInstanceID(instanceID),
		usecase.WithCatalogFetchTimeout(cfg.Catalog.FetchTimeout),
	}

	// Рекомендации дозаказа: лог всегда, журнал в Postgres — если задан DSN.
	notifiers := notify.Fanout{notify.NewLogNotifier(logg)}
	var journal ports.ReorderJournal
	if cfg.Postgres.DSN != "" {
		pool, pErr := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if pErr != nil {
			return fail(pErr)
		}
		closers = append(closers, pool.Close)

		if cfg.Postgres.Migrate {
			applied, mErr := postgres.Migrate(ctx, pool)
			if mErr != nil {
				return fail(mErr)
			}
			logg.Infof(ctx, "postgres migrations applied=%d", applied)
		}
		repo := postgres.NewReorderAlertRepository(pool)
		notifiers = append(notifiers, repo)
		journal = repo
	}
	opts = append(opts, usecase.WithReorderNotifier(notifiers))

	// Синхронизация витрины (best-effort).
	if cfg.Shopify.Enabled {
		listing, sErr := shopify.NewListingSync(shopify.Config{
			Shop:       cfg.Shopify.Shop,
			Token:      cfg.Shopify.Token,
			APIVersion: cfg.Shopify.APIVersion,
			Timeout:    cfg.Shopify.Timeout,
			RateLimit:  cfg.Shopify.RateLimit,
		}, nil)
		if sErr != nil {
			return fail(fmt.Errorf("shopify: %w", sErr))
		}
		opts = append(opts, usecase.WithListingSync(listing))
	}

	// Публикация событий изменений.
	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled {
		publisher = kafka.NewPublisher(&kafka.PublisherConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		opts = append(opts, usecase.WithChangePublisher(publisher))
	}

	// Сборка доменного слоя.
	catalog := usecase.NewProductCatalog(gateway, store, logg, opts...)
	closers = append(closers, func() {
		// дождаться фоновых публикаций до закрытия writer'а
		catalog.Wait()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logg.Warnf(ctx, "kafka publisher close error: %v", err)
			}
		}
	})

	// Прогрев кэша
	if n := cfg.Cache.WarmUpN; n > 0 {
		if err := catalog.WarmUpCache(ctx, n); err != nil {
			logg.Warnf(ctx, "warm-up cache failed: %v", err)
		}
	}

	// Консьюмер событий: у каждого экземпляра своя группа, чтобы видеть все события.
	var consumer ports.ChangeConsumer
	if cfg.Kafka.Enabled {
		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			groupID = "gemstock-" + instanceID
		}
		c, cErr := kafka.NewConsumer(&kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        groupID,
			Topic:          cfg.Kafka.Topic,
			StartOffset:    cfg.Kafka.StartOffset,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryInitial:   cfg.Kafka.RetryInitial,
			RetryMax:       cfg.Kafka.RetryMax,
		}, catalog, logg)
		if cErr != nil {
			return fail(cErr)
		}
		closers = append(closers, func() {
			if err := c.Close(); err != nil {
				logg.Warnf(ctx, "kafka consumer close error: %v", err)
			}
		})
		consumer = c
	}

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(catalog, journal, logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, cfg.HTTP.StaticDir, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	logg.Infof(ctx, "catalog ready instance=%s cache=%s kafka=%t journal=%t shopify=%t",
		instanceID, cfg.Cache.Backend, cfg.Kafka.Enabled, journal != nil, cfg.Shopify.Enabled)

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		KafkaConsumer:   consumer,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}
	return app, cleanup, nil
}

// newStore — memory или redis по конфигурации.
func newStore(ctx context.Context, cfg config.Cache, log ports.Logger) (ports.ProductStore, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return cachemem.NewProductStore(), func() {}, nil
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := cacheredis.NewProductStore(rdb, cfg.RedisPrefix, log)
		if err := store.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Warnf(ctx, "redis close error: %v", err)
			}
		}
		return store, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Run — запускает HTTP-сервер и консьюмера; ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	// Запуск консьюмера.
	if a.KafkaConsumer != nil {
		g.Go(func() error {
			a.Logger.Infof(ctx, "kafka consumer starting")
			err := a.KafkaConsumer.Run(gctx)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				a.Logger.Infof(ctx, "kafka consumer stopped: %v", err)
				return nil
			}
			return err
		})
	}

	// Запуск HTTP-сервера.
	g.Go(func() error {
		a.Logger.Infof(ctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Ожидание сигнала остановки или фоновой ошибки, затем корректная остановка.
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")

		gt := a.gracefulTimeout
		if gt <= 0 {
			gt = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
		defer cancel()

		if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
		} else {
			a.Logger.Infof(ctx, "http server stopped gracefully")
		}

		// Остановка Kafka-консьюмера
		if a.KafkaConsumer != nil {
			if err := a.KafkaConsumer.Close(); err != nil {
				a.Logger.Warnf(ctx, "kafka consumer close error: %v", err)
			}
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		a.Logger.Warnf(ctx, "background error: %v", err)
	}
	a.Logger.Infof(ctx, "service stopped")
	return err
}
