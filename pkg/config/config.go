package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	YooKassa     YooKassaConfig
	Frontend     FrontendConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OLIMP_APP_ENV" required:"true"`
	Port         string `envconfig:"OLIMP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OLIMP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OLIMP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OLIMP_DB_DSN"`
	Driver string `envconfig:"OLIMP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OLIMP_DB_HOST"`
	LegacyPort     int    `envconfig:"OLIMP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OLIMP_DB_USER"`
	LegacyPassword string `envconfig:"OLIMP_DB_PASSWORD"`
	LegacyName     string `envconfig:"OLIMP_DB_NAME"`
	LegacySSLMode  string `envconfig:"OLIMP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OLIMP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OLIMP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OLIMP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OLIMP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OLIMP_REDIS_URL"`
	Address      string        `envconfig:"OLIMP_REDIS_ADDR"`
	Password     string        `envconfig:"OLIMP_REDIS_PASSWORD"`
	DB           int           `envconfig:"OLIMP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OLIMP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OLIMP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OLIMP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OLIMP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OLIMP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint has been configured at all. The
// webhook duplicate guard degrades gracefully without one.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"OLIMP_JWT_SECRET"`
	Issuer            string `envconfig:"OLIMP_JWT_ISSUER" default:"olimpiec"`
	ExpirationMinutes int    `envconfig:"OLIMP_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type YooKassaConfig struct {
	ShopID        string        `envconfig:"OLIMP_YOOKASSA_SHOP_ID"`
	SecretKey     string        `envconfig:"OLIMP_YOOKASSA_SECRET_KEY"`
	BaseURL       string        `envconfig:"OLIMP_YOOKASSA_BASE_URL" default:"https://api.yookassa.ru/v3"`
	Currency      string        `envconfig:"OLIMP_YOOKASSA_CURRENCY" default:"RUB"`
	CreateTimeout time.Duration `envconfig:"OLIMP_YOOKASSA_CREATE_TIMEOUT" default:"30s"`
	PollTimeout   time.Duration `envconfig:"OLIMP_YOOKASSA_POLL_TIMEOUT" default:"10s"`
}

// Configured reports whether gateway credentials are present.
func (y YooKassaConfig) Configured() bool {
	return y.ShopID != "" && y.SecretKey != ""
}

type FrontendConfig struct {
	BaseURL string `envconfig:"OLIMP_FRONTEND_URL" default:"http://localhost:5173"`
}

// PaymentReturnURL builds the page the buyer lands on after the gateway redirect.
func (f FrontendConfig) PaymentReturnURL(orderID uint64) string {
	return fmt.Sprintf("%s/payment/success?order_id=%d", strings.TrimRight(f.BaseURL, "/"), orderID)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OLIMP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
