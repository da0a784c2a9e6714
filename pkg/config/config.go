package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	RateLimit     RateLimitConfig
	Orders        OrdersConfig
	Notifications NotificationsConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"LOCALMART_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCALMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCALMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCALMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOCALMART_DB_DSN"`
	Driver string `envconfig:"LOCALMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LOCALMART_DB_HOST"`
	Port     int    `envconfig:"LOCALMART_DB_PORT" default:"5432"`
	User     string `envconfig:"LOCALMART_DB_USER"`
	Password string `envconfig:"LOCALMART_DB_PASSWORD"`
	Name     string `envconfig:"LOCALMART_DB_NAME"`
	SSLMode  string `envconfig:"LOCALMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOCALMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOCALMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOCALMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOCALMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCALMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOCALMART_REDIS_ADDR"`
	Password     string        `envconfig:"LOCALMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCALMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCALMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCALMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCALMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCALMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCALMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LOCALMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LOCALMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LOCALMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RateLimitConfig struct {
	Window   time.Duration `envconfig:"LOCALMART_RATE_LIMIT_WINDOW" default:"1m"`
	PerUser  int64         `envconfig:"LOCALMART_RATE_LIMIT_PER_USER" default:"120"`
	Disabled bool          `envconfig:"LOCALMART_RATE_LIMIT_DISABLED" default:"false"`
}

// OrdersConfig carries the pricing knobs applied at order creation.
type OrdersConfig struct {
	FreeDeliveryThresholdCents int `envconfig:"LOCALMART_ORDERS_FREE_DELIVERY_THRESHOLD" default:"500"`
	FlatDeliveryFeeCents       int `envconfig:"LOCALMART_ORDERS_FLAT_DELIVERY_FEE" default:"50"`
}

type NotificationsConfig struct {
	ExpiryDays int `envconfig:"LOCALMART_NOTIFICATIONS_EXPIRY_DAYS" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOCALMART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"LOCALMART_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EventsTopic string `envconfig:"LOCALMART_PUBSUB_EVENTS_TOPIC" default:"localmart-domain-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LOCALMART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LOCALMART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LOCALMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
