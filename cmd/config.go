package cmd

import "time"

// Config carries all runtime settings for the dispatch service.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr            string
	NotificationsBaseURL string

	SearchRadiusKm        float64
	DispatchAttempts      uint64
	DriverResponseTimeout time.Duration
}
