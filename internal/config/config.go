package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	Environment    string // ENV: production, development, etc.
	LogLevel       string
	Host           string   // Raw HOST env (e.g. https://api.mindfulkids.app)
	AllowedHost    string   // Hostname only for strict host check (production only)
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	TrustProxy     bool     // read client IPs from X-Forwarded-For

	StoreDriver string // postgres or memory
	PostgresURI string
	RedisURI    string
	Redis       RedisPool
	MongoURI    string
	MongoDB     string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AWSRegion    string
	SESFromEmail string

	InviteBaseURL  string
	InviteTTL      time.Duration
	SessionTTL     time.Duration
	DocumentURLTTL time.Duration

	RequestTimeout time.Duration
	UploadTimeout  time.Duration

	SubmissionRateLimit  int
	SubmissionRateWindow time.Duration
}

// RedisPool tunes the shared Redis client. Sessions, invites, the directory cache and the
// submission limiter all go through it.
type RedisPool struct {
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	IOTimeout    time.Duration // read and write
	PoolTimeout  time.Duration
	MaxIdleTime  time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HOST", "http://localhost:8080")
	v.SetDefault("FRONTEND_URL", "http://localhost:8081")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("POSTGRES_URI", "postgres://localhost:5432/mindfulkids?sslmode=disable")
	v.SetDefault("REDIS_URI", "redis://localhost:6379/0")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 5)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_IO_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_POOL_TIMEOUT", 4*time.Second)
	v.SetDefault("REDIS_MAX_IDLE_TIME", 5*time.Minute)
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "mindfulkids")
	v.SetDefault("MINIO_BUCKET", "clinic-documents")
	v.SetDefault("MINIO_USE_SSL", true)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("INVITE_BASE_URL", "mindfulkids://clinic-invite")
	v.SetDefault("INVITE_TTL", 7*24*time.Hour)
	v.SetDefault("SESSION_TTL", 7*24*time.Hour)
	v.SetDefault("DOCUMENT_URL_TTL", 5*time.Minute)
	v.SetDefault("REQUEST_TIMEOUT", 15*time.Second)
	v.SetDefault("UPLOAD_TIMEOUT", 30*time.Second)
	v.SetDefault("SUBMISSION_RATE_LIMIT", 5)
	v.SetDefault("SUBMISSION_RATE_WINDOW", time.Hour)
}

// Load reads configuration from the environment. Call godotenv.Load before this to pick up .env.
func Load() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	env := strings.ToLower(strings.TrimSpace(v.GetString("ENV")))
	host := v.GetString("HOST")

	// AllowedHost is only set in production; host check is skipped in development
	var allowedHost string
	if env == "production" {
		allowedHost = hostname(host)
	}

	allowedOrigins := parseOrigins(v.GetString("ALLOWED_ORIGINS"))
	if len(allowedOrigins) == 0 {
		allowedOrigins = parseOrigins(v.GetString("FRONTEND_URL"))
	}

	return &Config{
		Port:                 v.GetString("PORT"),
		Environment:          env,
		LogLevel:             strings.ToLower(v.GetString("LOG_LEVEL")),
		Host:                 host,
		AllowedHost:          allowedHost,
		AllowedOrigins:       allowedOrigins,
		TrustProxy:           v.GetBool("TRUST_PROXY"),
		StoreDriver:          strings.ToLower(v.GetString("STORE_DRIVER")),
		PostgresURI:          v.GetString("POSTGRES_URI"),
		RedisURI:             v.GetString("REDIS_URI"),
		Redis: RedisPool{
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			IOTimeout:    v.GetDuration("REDIS_IO_TIMEOUT"),
			PoolTimeout:  v.GetDuration("REDIS_POOL_TIMEOUT"),
			MaxIdleTime:  v.GetDuration("REDIS_MAX_IDLE_TIME"),
		},
		MongoURI:             v.GetString("MONGODB_URI"),
		MongoDB:              v.GetString("MONGODB_DATABASE"),
		CloudinaryName:       v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:     v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:  v.GetString("CLOUDINARY_API_SECRET"),
		MinioEndpoint:        v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:       v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:       v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:          v.GetString("MINIO_BUCKET"),
		MinioUseSSL:          v.GetBool("MINIO_USE_SSL"),
		AWSRegion:            v.GetString("AWS_REGION"),
		SESFromEmail:         v.GetString("SES_FROM_EMAIL"),
		InviteBaseURL:        v.GetString("INVITE_BASE_URL"),
		InviteTTL:            v.GetDuration("INVITE_TTL"),
		SessionTTL:           v.GetDuration("SESSION_TTL"),
		DocumentURLTTL:       v.GetDuration("DOCUMENT_URL_TTL"),
		RequestTimeout:       v.GetDuration("REQUEST_TIMEOUT"),
		UploadTimeout:        v.GetDuration("UPLOAD_TIMEOUT"),
		SubmissionRateLimit:  v.GetInt("SUBMISSION_RATE_LIMIT"),
		SubmissionRateWindow: v.GetDuration("SUBMISSION_RATE_WINDOW"),
	}
}

func hostname(host string) string {
	h := host
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// UsesMemoryStore reports whether the relational store is replaced by the in-memory repository.
func (c *Config) UsesMemoryStore() bool {
	return c.StoreDriver == "memory"
}
