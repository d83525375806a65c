package config

import (
	"strings"

	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config carries every runtime setting the process needs. It is built
// once in main and passed down; nothing reads the environment after Load.
type Config struct {
	Port string

	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	DBSchemaPath string

	CORSAllowedOrigins []string

	JWTSecret string

	// DefaultBonusPercentage is applied when annual stats are requested
	// without an explicit bonus percentage.
	DefaultBonusPercentage decimal.Decimal

	FrontendURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
}

// Load reads configuration from the environment, consulting a local
// .env file first when present.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set externally.
	_ = godotenv.Load()

	cfg := &Config{
		Port:         utils.Getenv("PORT", "8080"),
		DBHost:       utils.Getenv("DB_HOST", "localhost"),
		DBPort:       utils.Getenv("DB_PORT", "5432"),
		DBUser:       utils.Getenv("DB_USER", "kichaka"),
		DBPassword:   utils.Getenv("DB_PASSWORD", "kichaka"),
		DBName:       utils.Getenv("DB_NAME", "kichaka_db"),
		DBSSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
		DBSchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
		JWTSecret:    utils.Getenv("JWT_SECRET", "change-me-in-production"),
		FrontendURL:  utils.Getenv("FRONTEND_URL", "http://localhost:3000"),
		SMTPHost:     utils.Getenv("SMTP_HOST", "localhost"),
		SMTPUser:     utils.Getenv("SMTP_USER", ""),
		SMTPPassword: utils.Getenv("SMTP_PASSWORD", ""),
		MailFrom:     utils.Getenv("MAIL_FROM", "no-reply@kichaka.local"),
	}

	smtpPort, err := utils.StrToInt64(utils.Getenv("SMTP_PORT", "587"))
	if err != nil {
		return nil, err
	}
	cfg.SMTPPort = int(smtpPort)

	bonus, err := decimal.NewFromString(utils.Getenv("DEFAULT_BONUS_PERCENTAGE", "5"))
	if err != nil {
		return nil, err
	}
	cfg.DefaultBonusPercentage = bonus

	origins := utils.Getenv("CORS_ALLOWED_ORIGINS", "")
	if origins != "" {
		cfg.CORSAllowedOrigins = strings.Split(origins, ",")
	} else {
		cfg.CORSAllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	return cfg, nil
}
