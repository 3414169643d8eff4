package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server ServerConfig
	Mongo  MongoConfig
	JWT    JWTConfig
	Cookie CookieConfig
	Media  MediaConfig
	CORS   CORSConfig
	Bcrypt BcryptConfig
}

type ServerConfig struct {
	Port string
}

type MongoConfig struct {
	URI      string
	Database string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type CookieConfig struct {
	Domain string
	Secure bool
}

// MediaConfig selects the object-storage backend. Backend is either "gcs"
// or "r2"; only the matching credential block needs to be filled in.
type MediaConfig struct {
	Backend string

	GCSBucket       string
	GCSCredentials  string // path to a service-account key file
	R2Bucket        string
	R2AccessKeyID   string
	R2SecretKey     string
	R2Endpoint      string // https://<account-id>.r2.cloudflarestorage.com
	R2PublicDomain  string // custom domain or r2.dev URL for public links
	MaxUploadSizeMB int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type BcryptConfig struct {
	Cost int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("DATABASE_NAME", "vidtube"),
		},
		JWT: JWTConfig{
			AccessSecret:  os.Getenv("JWT_SECRET"),
			RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
			AccessTTL:     getMinutesEnv("ACCESS_TOKEN_TTL_MINUTES", 15*time.Minute),
			RefreshTTL:    getDaysEnv("REFRESH_TOKEN_TTL_DAYS", 14*24*time.Hour),
		},
		Cookie: CookieConfig{
			Domain: os.Getenv("COOKIE_DOMAIN"),
			Secure: getEnv("COOKIE_SECURE", "true") == "true",
		},
		Media: MediaConfig{
			Backend:         getEnv("MEDIA_BACKEND", "gcs"),
			GCSBucket:       os.Getenv("GCS_BUCKET"),
			GCSCredentials:  os.Getenv("CREDENTIALS_FILE_LOCATION"),
			R2Bucket:        os.Getenv("R2_BUCKET"),
			R2AccessKeyID:   os.Getenv("R2_ACCESS_KEY_ID"),
			R2SecretKey:     os.Getenv("R2_SECRET_ACCESS_KEY"),
			R2Endpoint:      os.Getenv("R2_ENDPOINT"),
			R2PublicDomain:  strings.TrimRight(os.Getenv("R2_PUBLIC_DOMAIN"), "/"),
			MaxUploadSizeMB: getIntEnv("MAX_UPLOAD_SIZE_MB", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getSliceEnv("ALLOWED_ORIGINS", nil),
		},
		Bcrypt: BcryptConfig{
			Cost: getIntEnv("BCRYPT_COST", 10),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if n := getIntEnv(key, 0); n > 0 {
		return time.Duration(n) * time.Minute
	}
	return defaultValue
}

func getDaysEnv(key string, defaultValue time.Duration) time.Duration {
	if n := getIntEnv(key, 0); n > 0 {
		return time.Duration(n) * 24 * time.Hour
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
