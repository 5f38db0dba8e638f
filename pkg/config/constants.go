package config

const EnvPrefix = "CLEANMATCH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "CLEANMATCH_APP_ENV"
	EnvPort     = "CLEANMATCH_APP_PORT"
	EnvLogLevel = "CLEANMATCH_LOG_LEVEL"

	EnvDBDSN  = "CLEANMATCH_DB_DSN"
	EnvDBHost = "CLEANMATCH_DB_HOST"
	EnvDBPort = "CLEANMATCH_DB_PORT"
	EnvDBUser = "CLEANMATCH_DB_USER"
	EnvDBPass = "CLEANMATCH_DB_PASSWORD"
	EnvDBName = "CLEANMATCH_DB_NAME"

	EnvRedisURL = "CLEANMATCH_REDIS_URL"

	EnvJWTSecret   = "CLEANMATCH_JWT_SECRET"
	EnvJWTIssuer   = "CLEANMATCH_JWT_ISSUER"
	EnvJWTRequired = "CLEANMATCH_JWT_REQUIRED"

	EnvOTPTTL       = "CLEANMATCH_OTP_TTL"
	EnvOTPMaxIssues = "CLEANMATCH_OTP_MAX_ISSUES"

	EnvOrdersRejectUnknownItems = "CLEANMATCH_ORDERS_REJECT_UNKNOWN_ITEMS"
	EnvOrdersExpiryEnabled      = "CLEANMATCH_ORDERS_EXPIRY_ENABLED"
	EnvOrdersPendingTTL         = "CLEANMATCH_ORDERS_PENDING_TTL"

	EnvMailDriver = "CLEANMATCH_MAIL_DRIVER"

	EnvGCPProjectID       = "CLEANMATCH_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "CLEANMATCH_PUBSUB_ORDERS_TOPIC"
	EnvPubSubNotification = "CLEANMATCH_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvCORSAllowedOrigins = "CLEANMATCH_CORS_ALLOWED_ORIGINS"
)

// componentDBEnvVars must all be set when no DSN is provided.
var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
