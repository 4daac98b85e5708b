package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Db        DbConfig
	Tg        TelegramConfig
	Coc       CocConfig
	Clan      ClanConfig
	Redis     RedisConfig
	Intervals IntervalsConfig
}

type DbConfig struct {
	Dsn string
}

type TelegramConfig struct {
	Token string
}

type CocConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

type ClanConfig struct {
	Tag      string
	ChatID   int64
	Timezone string
}

// RedisConfig — кэш справочных запросов к API, необязателен
type RedisConfig struct {
	Addr     string
	Password string
	TTL      time.Duration
}

type IntervalsConfig struct {
	WarPoll      time.Duration
	CwlPoll      time.Duration
	CapitalPoll  time.Duration
	Dispatch     time.Duration
	Cleanup      time.Duration
	MemberSync   time.Duration
	ClaimMaxAge  time.Duration
	MaxAttempts  int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Println("Файл .env не найден — используем переменные окружения")
	}

	config := &Config{
		Db: DbConfig{
			Dsn: getEnv("DATABASE_URL", ""),
		},
		Tg: TelegramConfig{
			Token: getEnv("TG_TOKEN", ""),
		},
		Coc: CocConfig{
			Token:   getEnv("COC_TOKEN", ""),
			BaseURL: getEnv("COC_BASE_URL", "https://api.clashofclans.com/v1"),
			Timeout: getDuration("COC_TIMEOUT", 30*time.Second),
		},
		Clan: ClanConfig{
			Tag:      getEnv("CLAN_TAG", ""),
			ChatID:   getInt64("CLAN_CHAT_ID", 0),
			Timezone: getEnv("CLAN_TIMEZONE", "UTC"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			TTL:      getDuration("REDIS_TTL", 10*time.Minute),
		},
		Intervals: IntervalsConfig{
			WarPoll:     getDuration("WAR_POLL_INTERVAL", 2*time.Minute),
			CwlPoll:     getDuration("CWL_POLL_INTERVAL", 10*time.Minute),
			CapitalPoll: getDuration("CAPITAL_POLL_INTERVAL", 30*time.Minute),
			Dispatch:    getDuration("DISPATCH_INTERVAL", 30*time.Second),
			Cleanup:     getDuration("CLEANUP_INTERVAL", 6*time.Hour),
			MemberSync:  getDuration("MEMBER_SYNC_INTERVAL", time.Hour),
			ClaimMaxAge: getDuration("CLAIM_MAX_AGE", 14*24*time.Hour),
			MaxAttempts: getInt("DISPATCH_MAX_ATTEMPTS", 1),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.Db.Dsn == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Coc.Token == "" {
		return errors.New("COC_TOKEN is required")
	}
	if c.Clan.Tag == "" {
		return errors.New("CLAN_TAG is required")
	}
	if _, err := time.LoadLocation(c.Clan.Timezone); err != nil {
		return errors.New("CLAN_TIMEZONE is invalid")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		logrus.Printf("Некорректное значение %s, используем %d", key, fallback)
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		logrus.Printf("Некорректное значение %s, используем %d", key, fallback)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		logrus.Printf("Некорректное значение %s, используем %s", key, fallback)
	}
	return fallback
}
