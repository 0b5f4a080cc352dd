// Package config loads drivekit configuration from YAML files and the
// environment.
//
// It uses Viper to read a config file and overlays environment variables on
// top, optionally sourcing them from a .env file first. The usual target is a
// drive.ManagerConfig:
//
//	var cfg drive.ManagerConfig
//	err := config.Load("uploads", &cfg)
//
// Environment variables override file values using underscore-separated
// paths (e.g. SERVICES_UPLOADS_BUCKET maps to services.uploads.bucket).
package config
