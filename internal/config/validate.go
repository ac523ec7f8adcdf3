package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var supportedBackends = map[string]bool{
	"memory":    true,
	"redis":     true,
	"postgres":  true,
	"firestore": true,
	"rtdb":      true,
}

// Validate checks Config for problems that would break the client at
// runtime. It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if !supportedBackends[c.Store.Backend] {
		errs = append(errs, fmt.Sprintf("STORE_BACKEND %q is not supported (memory, redis, postgres, firestore, rtdb)", c.Store.Backend))
	}

	switch c.Store.Backend {
	case "firestore":
		if c.Firebase.ProjectID == "" {
			errs = append(errs, "FIREBASE_PROJECT_ID is required for the firestore backend")
		}
	case "rtdb":
		if c.Firebase.DatabaseURL == "" {
			errs = append(errs, "FIREBASE_DATABASE_URL is required for the rtdb backend")
		}
	case "postgres":
		if c.Postgres.Password == "" {
			errs = append(errs, "POSTGRES_PASSWORD is required for the postgres backend")
		}
	}

	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}
	if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
		errs = append(errs, fmt.Sprintf("POSTGRES_PORT must be 1-65535, got %d", c.Postgres.Port))
	}

	if c.Quota.MaxPerMinute < 0 {
		errs = append(errs, "QUOTA_MAX_PER_MINUTE must not be negative")
	}
	if c.Quota.MaxPerDay < 0 {
		errs = append(errs, "QUOTA_MAX_PER_DAY must not be negative")
	}
	if c.Quota.Timezone != "" {
		if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("QUOTA_TIMEZONE %q is not a valid IANA zone", c.Quota.Timezone))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
