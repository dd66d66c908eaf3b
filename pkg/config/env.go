package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                  = "STOREFRONT_APP_ENV"
	EnvLogLevel                = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat               = "STOREFRONT_LOG_FORMAT"
	EnvAPIBaseURL              = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout              = "STOREFRONT_API_TIMEOUT"
	EnvVerifyMaxAttempts       = "STOREFRONT_VERIFY_MAX_ATTEMPTS"
	EnvVerifyInterval          = "STOREFRONT_VERIFY_INTERVAL"
	EnvVerifyOptimisticTimeout = "STOREFRONT_VERIFY_OPTIMISTIC_TIMEOUT"
	EnvRedisURL                = "STOREFRONT_REDIS_URL"
	EnvCheckoutOriginURL       = "STOREFRONT_CHECKOUT_ORIGIN_URL"
	EnvEmail                   = "STOREFRONT_EMAIL"
	EnvPassword                = "STOREFRONT_PASSWORD"
)
