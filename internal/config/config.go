package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	SMTPHost     string
	SMTPPort     int
	SMTPSecure   bool // implicit TLS (SMTPS) when true, STARTTLS otherwise
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	BrandName    string
	SupportEmail string
	AppLoginURL  string
	AppCustomURL string

	TemplatesDir string // holds the HTML templates and the assets/ logo dir

	OTPTTL        time.Duration
	ResetTokenTTL time.Duration

	AllowedOrigins    []string // CORS allowed origins
	TrustProxyHeaders bool     // believe X-Forwarded-For / X-Real-Ip for rate limiting
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Staff       string
	OTPs        string
	ResetTokens string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "8787"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Staff:       getEnv("DYNAMO_TABLE_STAFF", "staff"),
			OTPs:        getEnv("DYNAMO_TABLE_OTPS", "otp_records"),
			ResetTokens: getEnv("DYNAMO_TABLE_RESET_TOKENS", "password_reset_tokens"),
		},

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 465),
		SMTPSecure:   getEnv("SMTP_SECURE", "true") == "true",
		SMTPUsername: getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASS", ""),
		MailFrom:     getEnv("MAIL_FROM", "noreply@example.com"),

		BrandName:    getEnv("BRAND_NAME", "Fliptrade"),
		SupportEmail: getEnv("SUPPORT_EMAIL", "support@fliptrade.com"),
		AppLoginURL:  getEnv("APP_LOGIN_URL", "https://admin.fliptradegroup.com/login"),
		AppCustomURL: getEnv("APP_CUSTOM_URL", ""),

		TemplatesDir: getEnv("TEMPLATES_DIR", "./templates"),

		OTPTTL:        time.Duration(getEnvInt("OTP_TTL_SECONDS", 60)) * time.Second,
		ResetTokenTTL: time.Duration(getEnvInt("RESET_TOKEN_TTL_SECONDS", 600)) * time.Second,

		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxyHeaders: getEnv("TRUST_PROXY_HEADERS", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
