package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type APIConfig struct {
	Port   string
	DBDSN  string
	RMQURL string
	Queue  string

	ResendAPIKey  string
	ResendBaseURL string
	MailFrom      string

	BatchSize  int
	BatchDelay time.Duration
}

var API APIConfig

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("required env %s is not set", k)
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("env %s must be a positive integer, got %q", k, v)
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		log.Fatalf("env %s must be a non-negative duration, got %q", k, v)
	}
	return d
}

func MustLoadAPI() {
	API = APIConfig{
		Port:   getenv("PORT", "8080"),
		DBDSN:  mustEnv("DB_DSN"),
		RMQURL: mustEnv("RMQ_URL"),
		Queue:  getenv("QUEUE", "campaign_events"),

		ResendAPIKey:  mustEnv("RESEND_API_KEY"),
		ResendBaseURL: getenv("RESEND_BASE_URL", "https://api.resend.com"),
		MailFrom:      getenv("MAIL_FROM", "ABNP <onboarding@resend.dev>"),

		BatchSize:  getenvInt("BATCH_SIZE", 10),
		BatchDelay: getenvDuration("BATCH_DELAY", time.Second),
	}
}
