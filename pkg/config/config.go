package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Negotiation  NegotiationConfig
	Realtime     RealtimeConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WHOLEXALE_APP_ENV" required:"true"`
	Port         string `envconfig:"WHOLEXALE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"WHOLEXALE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WHOLEXALE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WHOLEXALE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WHOLEXALE_DB_DSN"`
	Driver string `envconfig:"WHOLEXALE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WHOLEXALE_DB_HOST"`
	LegacyPort     int    `envconfig:"WHOLEXALE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WHOLEXALE_DB_USER"`
	LegacyPassword string `envconfig:"WHOLEXALE_DB_PASSWORD"`
	LegacyName     string `envconfig:"WHOLEXALE_DB_NAME"`
	LegacySSLMode  string `envconfig:"WHOLEXALE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WHOLEXALE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WHOLEXALE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WHOLEXALE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WHOLEXALE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WHOLEXALE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WHOLEXALE_REDIS_ADDR"`
	Password     string        `envconfig:"WHOLEXALE_REDIS_PASSWORD"`
	DB           int           `envconfig:"WHOLEXALE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WHOLEXALE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WHOLEXALE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WHOLEXALE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WHOLEXALE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WHOLEXALE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WHOLEXALE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WHOLEXALE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"WHOLEXALE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WHOLEXALE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WHOLEXALE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"WHOLEXALE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WHOLEXALE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"WHOLEXALE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WHOLEXALE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OfferTopic               string `envconfig:"WHOLEXALE_PUBSUB_OFFER_TOPIC" default:"wx-offer-events"`
	OfferSubscription        string `envconfig:"WHOLEXALE_PUBSUB_OFFER_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"WHOLEXALE_PUBSUB_NOTIFICATION_TOPIC" default:"wx-notification-events"`
	NotificationSubscription string `envconfig:"WHOLEXALE_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"WHOLEXALE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"WHOLEXALE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"WHOLEXALE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// NegotiationConfig tunes the offer state machine. MaxVendorCounters is the
// number of counters the seller may issue per offer; OfferTTL is the default
// window before an open offer expires.
type NegotiationConfig struct {
	MaxVendorCounters   int           `envconfig:"WHOLEXALE_NEGOTIATION_MAX_VENDOR_COUNTERS" default:"2"`
	OfferTTL            time.Duration `envconfig:"WHOLEXALE_NEGOTIATION_OFFER_TTL" default:"168h"`
	TransitionRetries   int           `envconfig:"WHOLEXALE_NEGOTIATION_TRANSITION_RETRIES" default:"3"`
	InitialOffersLimit  int           `envconfig:"WHOLEXALE_NEGOTIATION_INITIAL_OFFERS_LIMIT" default:"50"`
	AnalyticsWindowDays int           `envconfig:"WHOLEXALE_NEGOTIATION_ANALYTICS_WINDOW_DAYS" default:"30"`
}

type RealtimeConfig struct {
	AllowedOrigins   []string      `envconfig:"WHOLEXALE_REALTIME_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	WriteTimeout     time.Duration `envconfig:"WHOLEXALE_REALTIME_WRITE_TIMEOUT" default:"10s"`
	PongTimeout      time.Duration `envconfig:"WHOLEXALE_REALTIME_PONG_TIMEOUT" default:"60s"`
	PingInterval     time.Duration `envconfig:"WHOLEXALE_REALTIME_PING_INTERVAL" default:"54s"`
	SendBufferSize   int           `envconfig:"WHOLEXALE_REALTIME_SEND_BUFFER_SIZE" default:"64"`
	MaxMessageBytes  int64         `envconfig:"WHOLEXALE_REALTIME_MAX_MESSAGE_BYTES" default:"32768"`
	HandshakeTimeout time.Duration `envconfig:"WHOLEXALE_REALTIME_HANDSHAKE_TIMEOUT" default:"10s"`

	// Reconnect storms are bounded per user before the upgrade is attempted.
	HandshakeRateLimit  int64         `envconfig:"WHOLEXALE_REALTIME_HANDSHAKE_RATE_LIMIT" default:"10"`
	HandshakeRateWindow time.Duration `envconfig:"WHOLEXALE_REALTIME_HANDSHAKE_RATE_WINDOW" default:"1m"`
}

type CronConfig struct {
	TickInterval    time.Duration `envconfig:"WHOLEXALE_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL         time.Duration `envconfig:"WHOLEXALE_CRON_LOCK_TTL" default:"5m"`
	ExpiryBatchSize int           `envconfig:"WHOLEXALE_CRON_EXPIRY_BATCH_SIZE" default:"200"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
