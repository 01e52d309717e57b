package app

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr           string
	MongoURI           string
	MongoDatabase      string
	EpisodesCollection string
	UsersCollection    string
	BlobBackend        string // "gridfs" or "s3"
	BlobBucket         string
	S3Endpoint         string
	S3AccessKey        string
	S3SecretKey        string
	S3Region           string
	S3UseSSL           bool
	JWTSecret          string // required; the server refuses to start without it
	JWTExpiryHours     int64
	MaxUploadBytes     int64
	LogLevel           string
	LogFormat          string
	Environment        string
	CORSAllowedOrigins []string
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DB", "podstream"),
		EpisodesCollection: getEnv("MONGO_EPISODES_COLLECTION", "episodes"),
		UsersCollection:    getEnv("MONGO_USERS_COLLECTION", "users"),
		BlobBackend:        strings.ToLower(getEnv("BLOB_BACKEND", "gridfs")),
		BlobBucket:         getEnv("BLOB_BUCKET", "uploads"),
		S3Endpoint:         getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:        getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:        getEnv("S3_SECRET_KEY", ""),
		S3Region:           getEnv("S3_REGION", ""),
		S3UseSSL:           getEnvBool("S3_USE_SSL", false),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTExpiryHours:     getEnvInt64("JWT_EXPIRY_HOURS", 168),
		MaxUploadBytes:     getEnvInt64("MAX_UPLOAD_BYTES", 50<<20),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Environment:        strings.ToLower(getEnv("ENV", "development")),
		CORSAllowedOrigins: parseCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	if parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
