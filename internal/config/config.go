package config

import (
	"os"
	"time"
)

const defaultDingDingTimeout = 10 * time.Second

type Config struct {
	DingDing DingDingConfig
	Server   ServerConfig
}

// DingDingConfig - DingDing 로봇 웹훅 설정
// URL이 비어 있으면 서버는 뜨지만 요청마다 500을 반환한다.
type DingDingConfig struct {
	WebhookURL string
	Secret     string
	Timeout    time.Duration
}

type ServerConfig struct {
	Port string
}

func Load() Config {
	return Config{
		DingDing: DingDingConfig{
			WebhookURL: os.Getenv("DINGDING_WEBHOOK_URL"),
			Secret:     os.Getenv("DINGDING_SECRET"),
			Timeout:    getduration("DINGDING_TIMEOUT", defaultDingDingTimeout),
		},
		Server: ServerConfig{
			Port: getenv("PORT", "8080"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
