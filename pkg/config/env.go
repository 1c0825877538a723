package config

const (
	EnvPrefix = "GEARHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "GEARHUB_APP_ENV"
	EnvPort     = "GEARHUB_APP_PORT"
	EnvLogLevel = "GEARHUB_LOG_LEVEL"

	EnvDBDSN  = "GEARHUB_DB_DSN"
	EnvDBHost = "GEARHUB_DB_HOST"
	EnvDBUser = "GEARHUB_DB_USER"
	EnvDBName = "GEARHUB_DB_NAME"

	EnvRedisURL = "GEARHUB_REDIS_URL"

	EnvJWTSecret  = "GEARHUB_JWT_SECRET"
	EnvJWTIssuer  = "GEARHUB_JWT_ISSUER"
	EnvJWTExpMins = "GEARHUB_JWT_EXPIRATION_MINUTES"

	EnvPricingFreeShippingThreshold = "GEARHUB_PRICING_FREE_SHIPPING_THRESHOLD"
	EnvPricingTaxRate               = "GEARHUB_PRICING_TAX_RATE"

	EnvOrderNumberPrefix   = "GEARHUB_ORDER_NUMBER_PREFIX"
	EnvOrderNumberTimezone = "GEARHUB_ORDER_NUMBER_TIMEZONE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
