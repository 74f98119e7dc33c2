package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// WHOLEXALE_ tags so the prefix only matters for unkeyed fields.
const EnvPrefix = "WHOLEXALE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "WHOLEXALE_APP_ENV"
	EnvPort       = "WHOLEXALE_APP_PORT"
	EnvDBDSN      = "WHOLEXALE_DB_DSN"
	EnvDBHost     = "WHOLEXALE_DB_HOST"
	EnvDBUser     = "WHOLEXALE_DB_USER"
	EnvDBName     = "WHOLEXALE_DB_NAME"
	EnvRedisURL   = "WHOLEXALE_REDIS_URL"
	EnvJWTSecret  = "WHOLEXALE_JWT_SECRET"
	EnvJWTIssuer  = "WHOLEXALE_JWT_ISSUER"
	EnvJWTExpMins = "WHOLEXALE_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID           = "WHOLEXALE_GCP_PROJECT_ID"
	EnvPubSubOfferTopic       = "WHOLEXALE_PUBSUB_OFFER_TOPIC"
	EnvPubSubOfferSub         = "WHOLEXALE_PUBSUB_OFFER_SUBSCRIPTION"
	EnvPubSubNotificationTop  = "WHOLEXALE_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub  = "WHOLEXALE_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvNegotiationMaxCounters = "WHOLEXALE_NEGOTIATION_MAX_VENDOR_COUNTERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
