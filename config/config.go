package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultPrefix — префикс переменных окружения.
const DefaultPrefix = "INVENTORY"

type HTTP struct {
	Addr              string        `default:":8080" envconfig:"ADDR"`
	GinMode           string        `default:"debug" envconfig:"GIN_MODE"`
	StaticDir         string        `envconfig:"STATIC_DIR"` // пусто — без статики
	ReadTimeout       time.Duration `default:"10s" envconfig:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `default:"10s" envconfig:"WRITE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `default:"5s" envconfig:"READ_HEADER_TIMEOUT"`
	IdleTimeout       time.Duration `default:"60s" envconfig:"IDLE_TIMEOUT"`
	HandlerTimeout    time.Duration `default:"8s" envconfig:"HANDLER_TIMEOUT"`
	GracefulTimeout   time.Duration `default:"5s" envconfig:"GRACEFUL_TIMEOUT"`
}

type Tracing struct {
	Enabled     bool    `default:"false" envconfig:"OTEL_ENABLED"`
	ServiceName string  `default:"gemstock" envconfig:"OTEL_SERVICE_NAME"`
	Endpoint    string  `default:"jaeger:4318" envconfig:"OTEL_ENDPOINT"`
	SampleRatio float64 `default:"1" envconfig:"OTEL_SAMPLE_RATIO"`
}

type Logger struct {
	IsProd bool `default:"false" envconfig:"IS_PROD"`
}

// Gateway — удалённый REST-бэкенд товаров.
type Gateway struct {
	BaseURL   string        `default:"http://localhost:8081/api" envconfig:"BASE_URL"`
	Token     string        `envconfig:"TOKEN"`
	Timeout   time.Duration `default:"10s" envconfig:"TIMEOUT"`
	RateLimit float64       `default:"20" envconfig:"RATE_LIMIT"`
	Burst     int           `default:"5" envconfig:"BURST"`
	Retries   int           `default:"2" envconfig:"RETRIES"`
	Backoff   time.Duration `default:"200ms" envconfig:"BACKOFF"`
}

// Shopify — синхронизация витрины; выключена, пока не задан магазин.
type Shopify struct {
	Enabled    bool          `default:"false" envconfig:"ENABLED"`
	Shop       string        `envconfig:"SHOP"`
	Token      string        `envconfig:"TOKEN"`
	APIVersion string        `default:"2024-07" envconfig:"API_VERSION"`
	Timeout    time.Duration `default:"30s" envconfig:"TIMEOUT"`
	RateLimit  float64       `default:"2" envconfig:"RATE_LIMIT"`
}

// Cache — memory (в процессе) или redis (общий для экземпляров).
type Cache struct {
	Backend       string `default:"memory" envconfig:"BACKEND"`
	RedisAddr     string `default:"redis:6379" envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `default:"0" envconfig:"REDIS_DB"`
	RedisPrefix   string `default:"gemstock" envconfig:"REDIS_PREFIX"`
	WarmUpN       int    `default:"3" envconfig:"WARMUP_N"`
}

type Catalog struct {
	FetchTimeout time.Duration `default:"10s" envconfig:"FETCH_TIMEOUT"`
	InstanceID   string        `envconfig:"INSTANCE_ID"` // пусто — случайный uuid
}

type Coordinator struct {
	Debounce     time.Duration `default:"300ms" envconfig:"DEBOUNCE"`
	FetchTimeout time.Duration `default:"10s" envconfig:"FETCH_TIMEOUT"`
	PageLimit    int           `default:"12" envconfig:"PAGE_LIMIT"`
}

// Kafka — события изменений между экземплярами. GroupID пустой — своя группа на экземпляр.
type Kafka struct {
	Enabled        bool          `default:"true" envconfig:"ENABLED"`
	Brokers        []string      `default:"kafka:9092" envconfig:"BROKERS"`
	Topic          string        `default:"product-changes" envconfig:"TOPIC"`
	GroupID        string        `envconfig:"GROUP_ID"`
	StartOffset    string        `default:"last" envconfig:"START_OFFSET"`
	ProcessTimeout time.Duration `default:"5s" envconfig:"PROCESS_TIMEOUT"`
	RetryInitial   time.Duration `default:"1s" envconfig:"RETRY_INITIAL"`
	RetryMax       time.Duration `default:"30s" envconfig:"RETRY_MAX"`
	WriteTimeout   time.Duration `default:"5s" envconfig:"WRITE_TIMEOUT"`
}

// Postgres — журнал рекомендаций дозаказа. Пустой DSN — журнал выключен.
type Postgres struct {
	DSN      string `envconfig:"DSN"`
	MaxConns int32  `default:"10" envconfig:"MAX_CONNS"`
	Migrate  bool   `default:"true" envconfig:"MIGRATE"`
}

type Config struct {
	HTTP        HTTP
	Tracing     Tracing
	Logger      Logger
	Gateway     Gateway
	Shopify     Shopify
	Cache       Cache
	Catalog     Catalog
	Coordinator Coordinator
	Kafka       Kafka
	Postgres    Postgres
}

func Load() (Config, error) { return LoadWithPrefix(DefaultPrefix) }

// LoadWithPrefix — то же, что Load, с другим префиксом (тесты, несколько экземпляров на хосте).
func LoadWithPrefix(prefix string) (Config, error) {
	var c Config

	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, err
	}

	return c, nil
}
