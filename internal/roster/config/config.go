package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI             string
	Port                 string
	DBName               string
	StudentsCollection   string
	SyncConfigCollection string
	ReadTimeout          time.Duration
	WriteTimeout         time.Duration

	CodeforcesBaseURL string
	CodeforcesTimeout time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
}

func LoadConfig() (*Config, error) {
	// Optional .env for local development; env vars win.
	_ = godotenv.Load()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cfg := &Config{
		MongoURI:             mongoURI,
		Port:                 port,
		DBName:               getEnv("DB_NAME", "cfroster_db"),
		StudentsCollection:   getEnv("COLLECTION_STUDENTS", "students"),
		SyncConfigCollection: getEnv("COLLECTION_SYNC_CONFIG", "sync_config"),
		ReadTimeout:          getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:         getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		CodeforcesBaseURL:    getEnv("CODEFORCES_BASE_URL", "https://codeforces.com/api"),
		CodeforcesTimeout:    getEnvDuration("CODEFORCES_TIMEOUT", 15*time.Second),
		SMTPHost:             os.Getenv("SMTP_HOST"),
		SMTPPort:             getEnv("SMTP_PORT", "587"),
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		MailFrom:             getEnv("MAIL_FROM", "noreply@cfroster.local"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.CodeforcesBaseURL == "" {
		return fmt.Errorf("CODEFORCES_BASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		d, err := time.ParseDuration(valStr)
		if err == nil {
			return d
		}
		return fallback
	}
	return time.Duration(val) * time.Second
}
