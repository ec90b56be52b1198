package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port     string
	LogLevel string

	// Storage
	StorageDriver string // mongo, postgres or sqlite
	MongoURI      string
	MongoDB       string
	DatabaseURL   string

	// Auth
	JWTSecret   string
	TokenExpiry time.Duration
	CORSOrigins []string

	// External providers
	NominatimURL    string
	OSRMURL         string
	GeoUserAgent    string
	HTTPTimeout     time.Duration
	ExpoPushURL     string
	ExpoAccessToken string

	// Object storage
	StorageBackend string // local or s3
	UploadDir      string
	PublicBaseURL  string
	S3Bucket       string
	AWSRegion      string
	AWSEndpointURL string

	// Events
	KafkaBroker string
	KafkaTopic  string

	CronEnabled bool
}

// LoadConfig reads the .env file (if any) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "mongo")),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDB:       getEnv("MONGO_DB", "colib"),
		DatabaseURL:   getEnv("DATABASE_URL", "file:colib.db"),

		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		TokenExpiry: getDuration("TOKEN_EXPIRY", 24*time.Hour),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:8081,http://localhost:19006")),

		NominatimURL:    getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		OSRMURL:         getEnv("OSRM_URL", "https://router.project-osrm.org"),
		GeoUserAgent:    getEnv("GEO_USER_AGENT", "ColibApp/1.0 (covoiturage colis; contact@colib.app)"),
		HTTPTimeout:     getDuration("HTTP_TIMEOUT", 10*time.Second),
		ExpoPushURL:     getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		ExpoAccessToken: getEnv("EXPO_ACCESS_TOKEN", ""),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		AWSRegion:      getEnv("AWS_REGION", "eu-west-3"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),

		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "shipment.events"),

		CronEnabled: getBool("CRON_ENABLED", true),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid duration %q, using default %s", v, def)
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
