// Package config loads service configuration with viper.
//
// Values come from, in increasing precedence, registered defaults, a
// config.yml file, a .env file (godotenv) and the process environment.
// Environment variables use the upper-cased service name as prefix and
// underscores for nesting:
//
//	SHOPLIST_AUTH_ACCESS_TOKEN_TTL=5m   ->  auth.access_token_ttl
//	SHOPLIST_DATABASE_DSN=...           ->  database.dsn
package config
