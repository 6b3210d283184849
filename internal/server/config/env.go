package config

import "os"

// parseEnv overlays settings from environment variables (possibly loaded
// from .env). Only set variables override.
func parseEnv(config *Config) {
	overlay := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	overlay(&config.EndpointAddrHTTP, "WAYFARE_HTTP_ADDR")
	overlay(&config.DatabaseDSN, "WAYFARE_DATABASE_DSN")
	overlay(&config.SecretKey, "WAYFARE_SECRET_KEY")
	overlay(&config.StorageBackend, "WAYFARE_STORAGE_BACKEND")
	overlay(&config.FSRoot, "WAYFARE_FS_ROOT")
	overlay(&config.MediaBaseURL, "WAYFARE_MEDIA_BASE_URL")
	overlay(&config.S3AccessKey, "WAYFARE_S3_ACCESS_KEY")
	overlay(&config.S3SecretKey, "WAYFARE_S3_SECRET_KEY")
	overlay(&config.S3Bucket, "WAYFARE_S3_BUCKET")
	overlay(&config.S3Region, "WAYFARE_S3_REGION")
	overlay(&config.S3BaseEndpoint, "WAYFARE_S3_BASE_ENDPOINT")
}
