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
	AuthRateLimit AuthRateLimitConfig
	OTP           OTPConfig
	Orders        OrdersConfig
	Mail          MailConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLEANMATCH_APP_ENV" required:"true"`
	Port         string `envconfig:"CLEANMATCH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CLEANMATCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLEANMATCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN string `envconfig:"CLEANMATCH_DB_DSN"`

	Host     string `envconfig:"CLEANMATCH_DB_HOST"`
	Port     int    `envconfig:"CLEANMATCH_DB_PORT" default:"5432"`
	User     string `envconfig:"CLEANMATCH_DB_USER"`
	Password string `envconfig:"CLEANMATCH_DB_PASSWORD"`
	Name     string `envconfig:"CLEANMATCH_DB_NAME"`
	SSLMode  string `envconfig:"CLEANMATCH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLEANMATCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLEANMATCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLEANMATCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLEANMATCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLEANMATCH_REDIS_URL"`
	Address      string        `envconfig:"CLEANMATCH_REDIS_ADDR"`
	Password     string        `envconfig:"CLEANMATCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLEANMATCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLEANMATCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLEANMATCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLEANMATCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLEANMATCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLEANMATCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

// JWTConfig governs verification of identity-provider bearer tokens.
// Tokens are optional unless Required is set.
type JWTConfig struct {
	Secret   string `envconfig:"CLEANMATCH_JWT_SECRET"`
	Issuer   string `envconfig:"CLEANMATCH_JWT_ISSUER" default:"cleanmatch"`
	Required bool   `envconfig:"CLEANMATCH_JWT_REQUIRED" default:"false"`
}

type AuthRateLimitConfig struct {
	SendOTPWindow       time.Duration `envconfig:"CLEANMATCH_AUTH_RATE_LIMIT_SEND_OTP_WINDOW" default:"1m"`
	SendOTPEmailLimit   int           `envconfig:"CLEANMATCH_AUTH_RATE_LIMIT_SEND_OTP_EMAIL_LIMIT" default:"3"`
	SendOTPIPLimit      int           `envconfig:"CLEANMATCH_AUTH_RATE_LIMIT_SEND_OTP_IP_LIMIT" default:"20"`
	VerifyOTPWindow     time.Duration `envconfig:"CLEANMATCH_AUTH_RATE_LIMIT_VERIFY_OTP_WINDOW" default:"5m"`
	VerifyOTPEmailLimit int           `envconfig:"CLEANMATCH_AUTH_RATE_LIMIT_VERIFY_OTP_EMAIL_LIMIT" default:"10"`
	VerifyOTPIPLimit    int           `envconfig:"CLEANMATCH_AUTH_RATE_LIMIT_VERIFY_OTP_IP_LIMIT" default:"50"`
}

type OTPConfig struct {
	TTL            time.Duration `envconfig:"CLEANMATCH_OTP_TTL" default:"10m"`
	MaxIssues      int           `envconfig:"CLEANMATCH_OTP_MAX_ISSUES" default:"3"`
	IssueWindow    time.Duration `envconfig:"CLEANMATCH_OTP_ISSUE_WINDOW" default:"1h"`
	Pepper         string        `envconfig:"CLEANMATCH_OTP_PEPPER" default:"cleanmatch-otp"`
	RetentionHours int           `envconfig:"CLEANMATCH_OTP_RETENTION_HOURS" default:"168"`
}

// Retention returns how long issued codes are kept before purging.
func (o OTPConfig) Retention() time.Duration {
	if o.RetentionHours <= 0 {
		return 0
	}
	return time.Duration(o.RetentionHours) * time.Hour
}

type OrdersConfig struct {
	ListLimit          int           `envconfig:"CLEANMATCH_ORDERS_LIST_LIMIT" default:"20"`
	RejectUnknownItems bool          `envconfig:"CLEANMATCH_ORDERS_REJECT_UNKNOWN_ITEMS" default:"false"`
	ExpiryEnabled      bool          `envconfig:"CLEANMATCH_ORDERS_EXPIRY_ENABLED" default:"false"`
	PendingTTL         time.Duration `envconfig:"CLEANMATCH_ORDERS_PENDING_TTL" default:"72h"`
	IdempotencyTTL     time.Duration `envconfig:"CLEANMATCH_ORDERS_IDEMPOTENCY_TTL" default:"24h"`
}

type MailConfig struct {
	Driver   string `envconfig:"CLEANMATCH_MAIL_DRIVER" default:"log"`
	Host     string `envconfig:"CLEANMATCH_MAIL_HOST"`
	Port     int    `envconfig:"CLEANMATCH_MAIL_PORT" default:"587"`
	Username string `envconfig:"CLEANMATCH_MAIL_USERNAME"`
	Password string `envconfig:"CLEANMATCH_MAIL_PASSWORD"`
	From     string `envconfig:"CLEANMATCH_MAIL_FROM" default:"CleanMatch <noreply@cleanmatch.app>"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CLEANMATCH_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLEANMATCH_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"CLEANMATCH_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CLEANMATCH_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CLEANMATCH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CLEANMATCH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"CLEANMATCH_PUBSUB_ORDERS_TOPIC" default:"cm-order-events"`
	NotificationSubscription string `envconfig:"CLEANMATCH_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"cm-notification-worker"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CLEANMATCH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CLEANMATCH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CLEANMATCH_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"CLEANMATCH_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CLEANMATCH_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"CLEANMATCH_CRON_LOCK_TTL" default:"10m"`
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
	for _, env := range componentDBEnvVars {
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
