package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev_secret_change_me"

// Configはアプリ全体の設定
type Config struct {
	Port     string `mapstructure:"PORT"`      // サーバーポート（8080）
	GoEnv    string `mapstructure:"GO_ENV"`    // dev/prod
	LogLevel string `mapstructure:"LOG_LEVEL"` // debug/info/warn/error

	DatabaseURL      string `mapstructure:"DATABASE_URL"` // あれば最優先
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     int    `mapstructure:"POSTGRES_PORT"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"` // JWT署名シークレット
	AccessTokenTTL time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`

	FEURL    string `mapstructure:"FE_URL"`    // ストアフロント（CORS）
	AdminURL string `mapstructure:"ADMIN_URL"` // 管理画面（CORS）

	RedisAddr     string        `mapstructure:"REDIS_ADDR"` // 空ならキャッシュなし
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	PaymentAPIURL        string `mapstructure:"PAYMENT_API_URL"`
	PaymentSecretKey     string `mapstructure:"PAYMENT_SECRET_KEY"`
	PaymentWebhookSecret string `mapstructure:"PAYMENT_WEBHOOK_SECRET"`
	PaymentGatewayCode   string `mapstructure:"PAYMENT_GATEWAY_CODE"`
	Currency             string `mapstructure:"CURRENCY"`

	PostmarkServerToken string `mapstructure:"POSTMARK_SERVER_TOKEN"` // 空ならログ出力のみ
	MailFrom            string `mapstructure:"MAIL_FROM"`
	ShopInbox           string `mapstructure:"SHOP_INBOX"` // お問い合わせ通知先

	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	UploadMaxBytes int64  `mapstructure:"UPLOAD_MAX_BYTES"`

	RateLimitPerSecond float64 `mapstructure:"RATE_LIMIT_PER_SECOND"`
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

// 全キーのデフォルト。AutomaticEnvはキーが登録されていないとUnmarshalに反映されない
var defaults = map[string]any{
	"PORT":                   "8080",
	"GO_ENV":                 "dev",
	"LOG_LEVEL":              "info",
	"DATABASE_URL":           "",
	"POSTGRES_USER":          "postgres",
	"POSTGRES_PASSWORD":      "postgres",
	"POSTGRES_DB":            "datesshop",
	"POSTGRES_HOST":          "localhost",
	"POSTGRES_PORT":          5432,
	"POSTGRES_SSLMODE":       "disable",
	"JWT_SECRET":             defaultJWTSecret,
	"ACCESS_TOKEN_TTL":       "24h",
	"FE_URL":                 "http://localhost:3000",
	"ADMIN_URL":              "http://localhost:3001",
	"REDIS_ADDR":             "",
	"REDIS_PASSWORD":         "",
	"REDIS_DB":               0,
	"CACHE_TTL":              "5m",
	"PAYMENT_API_URL":        "https://api.stripe.com",
	"PAYMENT_SECRET_KEY":     "",
	"PAYMENT_WEBHOOK_SECRET": "",
	"PAYMENT_GATEWAY_CODE":   "stripe",
	"CURRENCY":               "sek",
	"POSTMARK_SERVER_TOKEN":  "",
	"MAIL_FROM":              "shop@example.com",
	"SHOP_INBOX":             "info@example.com",
	"UPLOAD_DIR":             "./uploads",
	"UPLOAD_MAX_BYTES":       5 << 20,
	"RATE_LIMIT_PER_SECOND":  5.0,
}

// Loadは.env（任意）と環境変数から読む
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Currency = strings.ToLower(cfg.Currency)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProd() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in prod")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.DatabaseURL == "" && (c.PostgresHost == "" || c.PostgresDB == "" || c.PostgresUser == "") {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST/POSTGRES_DB/POSTGRES_USER is required")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter code")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// gorm/postgres用のDSN
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}
