package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// CommentsConfig describes the hosted comments script injected into post pages.
type CommentsConfig struct {
	Repo      string
	IssueTerm string
	Theme     string
}

type Config struct {
	SiteName           string
	ServerPort         string
	PrismicEndpoint    string
	PrismicAccessToken string
	CMSTimeout         time.Duration
	HomePageSize       int
	RevalidateInterval time.Duration
	GenerationWorkers  int
	MongoURI           string
	MongoDBName        string
	MongoColl          string
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaDLQTopic      string
	KafkaGroupID       string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	PreviewTTL         time.Duration
	WebhookSecret      string
	Comments           CommentsConfig
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Parse comma-separated list of brokers
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "kafka:29092"
	}

	return &Config{
		SiteName:           getEnv("SITE_NAME", "Spacetraveling"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		PrismicEndpoint:    strings.TrimRight(getEnv("PRISMIC_API_ENDPOINT", "http://mock-cms:8081/api/v2"), "/"),
		PrismicAccessToken: getEnv("PRISMIC_ACCESS_TOKEN", ""),
		CMSTimeout:         getDurationEnv("CMS_TIMEOUT", 10*time.Second),
		HomePageSize:       getIntEnv("HOME_PAGE_SIZE", 10),
		RevalidateInterval: getDurationEnv("REVALIDATE_INTERVAL", time.Hour),
		GenerationWorkers:  getIntEnv("GENERATION_WORKERS", 4),
		MongoURI:           getEnv("MONGO_URI", "mongodb://mongodb:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "spacetraveling"),
		MongoColl:          getEnv("MONGO_COLLECTION", "pages"),
		KafkaBrokers:       strings.Split(brokers, ","),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "blog_revalidate"),
		KafkaDLQTopic:      getEnv("KAFKA_DLQ_TOPIC", "blog_revalidate_dlq"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "blog-revalidation-group"),
		RedisAddr:          getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getIntEnv("REDIS_DB", 0),
		PreviewTTL:         getDurationEnv("PREVIEW_TTL", 30*time.Minute),
		WebhookSecret:      getEnv("WEBHOOK_SECRET", ""),
		Comments: CommentsConfig{
			Repo:      getEnv("COMMENTS_REPO", "sambuite/desafio-blog-nextjs"),
			IssueTerm: getEnv("COMMENTS_ISSUE_TERM", "url"),
			Theme:     getEnv("COMMENTS_THEME", "github-dark"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		// Try parsing as duration string (e.g. "1m", "60s")
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Try parsing as integer seconds
		if i, err := strconv.Atoi(value); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
