// Package config provides configuration management for performer-tag-sync.
//
// It utilizes Viper for loading configuration from environment variables,
// with an optional .env file loaded first through godotenv.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, shutdown timeout)
//   - Database: stash database driver, SQLite path or MySQL connection details
//   - Storage: S3/MinIO credentials and the bucket run reports are archived in
//   - Log: Logging level, format and optional rotated log file
//   - Sync: tag mode, batch size, entity kinds, exclusion filters and commit retries
//   - Integrity: tested schema versions and index creation
//
// Every field carries a `default` tag; environment variables override it
// (e.g. SYNC_TAG_MODE=SET sets Sync.TagMode).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.BatchSize)
package config
