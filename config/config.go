package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL"`
	Postgres          Postgres
	Redis             Redis
	HTTP              HTTP
	Auth              Auth
	API               API
	Cache             Cache
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	Telegram          Telegram
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type HTTP struct {
	Port            int           `env:"HTTP_PORT"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `env:"HTTP_ALLOWED_ORIGINS" envSeparator:","`
}

type Auth struct {
	JWTSecret string `env:"AUTH_JWT_SECRET"`
}

type API struct {
	Debug       bool          `env:"API_DEBUG"`
	Timeout     time.Duration `env:"API_TIMEOUT"`
	CatalogApi  CatalogApi
	AccountsApi AccountsApi
	PaymentApi  PaymentApi
	WalletApi   WalletApi
}

type CatalogApi struct {
	Url string `env:"CATALOG_API_URL"`
}

type AccountsApi struct {
	Url string `env:"ACCOUNTS_API_URL"`
}

type PaymentApi struct {
	Url string `env:"PAYMENT_API_URL"`
}

type WalletApi struct {
	Url string `env:"WALLET_API_URL"`
}

type Cache struct {
	PropertiesExpiration time.Duration `env:"CACHE_PROPERTIES_EXPIRATION"`
}

type Jobs struct {
	RefreshPropertiesInterval time.Duration `env:"REFRESH_PROPERTIES_JOB_INTERVAL"`
	DriveCleanupInterval      time.Duration `env:"DRIVE_CLEANUP_JOB_INTERVAL"`
}

type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL"`
}

type Telegram struct {
	Token     string `env:"TELEGRAM_TOKEN"`
	OpsChatID int64  `env:"TELEGRAM_OPS_CHAT_ID"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
