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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Stripe        StripeConfig
	Sendgrid      SendgridConfig
	Outbox        OutboxConfig
	Store         StoreConfig
	Pricing       PricingConfig
	OrderNumber   OrderNumberConfig
	Contact       ContactConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.OrderNumber.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GEARHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"GEARHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GEARHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GEARHUB_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"GEARHUB_LOG_FORMAT" default:"json"`
	CORSOrigins  string `envconfig:"GEARHUB_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	return splitList(a.CORSOrigins)
}

type ServiceConfig struct {
	Kind string `envconfig:"GEARHUB_SERVICE_KIND" default:"api"`
	// MetricsAddr is where workers serve /metrics. "off" disables it; the
	// API serves /metrics on its own port.
	MetricsAddr string `envconfig:"GEARHUB_METRICS_ADDR" default:":9090"`
}

type DBConfig struct {
	DSN    string `envconfig:"GEARHUB_DB_DSN"`
	Driver string `envconfig:"GEARHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GEARHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"GEARHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GEARHUB_DB_USER"`
	LegacyPassword string `envconfig:"GEARHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"GEARHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"GEARHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GEARHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GEARHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GEARHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GEARHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"GEARHUB_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
	LogQueries         bool          `envconfig:"GEARHUB_DB_LOG_QUERIES" default:"false"`
	// TxRetries is how many times WithTx reruns a transaction that lost a
	// serialization or deadlock race.
	TxRetries int `envconfig:"GEARHUB_DB_TX_RETRIES" default:"2"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GEARHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GEARHUB_REDIS_ADDR"`
	Password     string        `envconfig:"GEARHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"GEARHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GEARHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GEARHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GEARHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GEARHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GEARHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"GEARHUB_REDIS_KEY_PREFIX" default:"gh"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GEARHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GEARHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GEARHUB_JWT_EXPIRATION_MINUTES" default:"60"`
	Audience          string `envconfig:"GEARHUB_JWT_AUDIENCE" default:"gearhub-admin"`
	// PreviousSecret still verifies tokens during a secret rotation. It never signs.
	PreviousSecret string        `envconfig:"GEARHUB_JWT_PREVIOUS_SECRET"`
	Leeway         time.Duration `envconfig:"GEARHUB_JWT_LEEWAY" default:"30s"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GEARHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GEARHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GEARHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GEARHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GEARHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"GEARHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"GEARHUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"GEARHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GEARHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GEARHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"GEARHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GEARHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GEARHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GEARHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"GEARHUB_PUBSUB_ORDERS_TOPIC" default:"gh-order-events"`
	SupportTopic             string `envconfig:"GEARHUB_PUBSUB_SUPPORT_TOPIC" default:"gh-support-events"`
	RealtimeTopic            string `envconfig:"GEARHUB_PUBSUB_REALTIME_TOPIC" default:"gh-realtime"`
	NotificationSubscription string `envconfig:"GEARHUB_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"gh-order-events-notifications"`
	SupportSubscription      string `envconfig:"GEARHUB_PUBSUB_SUPPORT_SUBSCRIPTION" default:"gh-support-events-notifications"`
	AnalyticsSubscription    string `envconfig:"GEARHUB_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"gh-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset         string        `envconfig:"GEARHUB_BIGQUERY_DATASET" default:"gearhub"`
	OrderFactsTable string        `envconfig:"GEARHUB_BIGQUERY_ORDER_FACTS_TABLE" default:"order_facts"`
	AutoCreate      bool          `envconfig:"GEARHUB_BIGQUERY_AUTO_CREATE" default:"false"`
	BatchSize       int           `envconfig:"GEARHUB_BIGQUERY_BATCH_SIZE" default:"1"`
	ReportCacheTTL  time.Duration `envconfig:"GEARHUB_BIGQUERY_REPORT_CACHE_TTL" default:"5m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"GEARHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"GEARHUB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"GEARHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"GEARHUB_CRON_INTERVAL" default:"24h"`
	JobTimeout                time.Duration `envconfig:"GEARHUB_CRON_JOB_TIMEOUT" default:"10m"`
	OutboxRetentionDays       int           `envconfig:"GEARHUB_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	NotificationRetentionDays int           `envconfig:"GEARHUB_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	AbandonedCartDays         int           `envconfig:"GEARHUB_CRON_ABANDONED_CART_DAYS" default:"30"`
}

type StripeConfig struct {
	APIKey string `envconfig:"GEARHUB_STRIPE_API_KEY"`
	Env    string `envconfig:"GEARHUB_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether card payments can be initiated.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type SendgridConfig struct {
	APIKey      string `envconfig:"GEARHUB_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"GEARHUB_SENDGRID_FROM_EMAIL" default:"orders@gearhub.dev"`
	FromName    string `envconfig:"GEARHUB_SENDGRID_FROM_NAME" default:"GearHub"`
}

type StoreConfig struct {
	Name         string `envconfig:"GEARHUB_STORE_NAME" default:"GearHub"`
	Currency     string `envconfig:"GEARHUB_STORE_CURRENCY" default:"USD"`
	SupportEmail string `envconfig:"GEARHUB_STORE_SUPPORT_EMAIL" default:"support@demo.dev"`
	AdminEmails  string `envconfig:"GEARHUB_STORE_ADMIN_EMAILS" default:"admin@demo.dev"`
	PublicURL    string `envconfig:"GEARHUB_STORE_PUBLIC_URL" default:"http://localhost:3000"`
}

// AdminRecipients returns the admin notification addresses.
func (s StoreConfig) AdminRecipients() []string {
	return splitList(s.AdminEmails)
}

// PricingConfig holds the single source of truth for shipping and tax.
type PricingConfig struct {
	FreeShippingThreshold int64  `envconfig:"GEARHUB_PRICING_FREE_SHIPPING_THRESHOLD" default:"5000"`
	FlatShippingFee       int64  `envconfig:"GEARHUB_PRICING_FLAT_SHIPPING_FEE" default:"500"`
	ExpressShippingFee    int64  `envconfig:"GEARHUB_PRICING_EXPRESS_SHIPPING_FEE" default:"1500"`
	TaxRate               string `envconfig:"GEARHUB_PRICING_TAX_RATE" default:"0.08"`
}

type OrderNumberConfig struct {
	Prefix    string `envconfig:"GEARHUB_ORDER_NUMBER_PREFIX" default:"GH"`
	Timezone  string `envconfig:"GEARHUB_ORDER_NUMBER_TIMEZONE" default:"UTC"`
	Allocator string `envconfig:"GEARHUB_ORDER_NUMBER_ALLOCATOR" default:"counter"`
}

// Location resolves the fixed zone used to derive the order number day.
func (o OrderNumberConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(o.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvOrderNumberTimezone, name, err)
	}
	return loc, nil
}

type ContactConfig struct {
	RateLimitWindow time.Duration `envconfig:"GEARHUB_CONTACT_RATE_LIMIT_WINDOW" default:"10m"`
	RateLimitMax    int           `envconfig:"GEARHUB_CONTACT_RATE_LIMIT_MAX" default:"5"`
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

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
