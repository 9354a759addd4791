package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa a configuração da API e do portal.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Backend   BackendConfig
	OCR       ServicoExternoConfig
	Matching  ServicoExternoConfig
	Whatsapp  WhatsappConfig
	Storage   StorageConfig
	Eventos   EventosConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Breaker   BreakerConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
	PortalPort  int
}

type DatabaseConfig struct {
	Host       string
	Port       int
	Name       string
	User       string
	Password   string
	SecretID   string // segredo no AWS Secrets Manager quando User/Password estão vazios
	SSLDisable bool
}

type AuthConfig struct {
	PrivateKeyPath string
	KID            string
	Issuer         string
	Audience       string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	CookieSecure   bool
	JWKSURL        string // usado pelo portal para validar os tokens emitidos pela API
}

// BackendConfig aponta o portal para a API interna.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// ServicoExternoConfig serve para OCR e matching.
type ServicoExternoConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type WhatsappConfig struct {
	GatewayURL   string
	APIKey       string
	PollInterval time.Duration
	Timeout      time.Duration
}

type StorageConfig struct {
	Mode                  string // local, minio ou azure
	LocalBasePath         string
	MinioEndpoint         string
	MinioAccessKey        string
	MinioSecretKey        string
	MinioBucket           string
	MinioUseSSL           bool
	CloudConnectionString string
	CloudContainer        string
	MaxUploadSizeMB       int64
}

type EventosConfig struct {
	NatsURL     string
	NatsSubject string
	WebhookURL  string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// PipelineIdle define quando uma etapa de envio abandonada é descartada no portal.
	PipelineIdle time.Duration
	CleanupCron  string
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

type BreakerConfig struct {
	MinRequests  uint32
	FailureRatio float64
	OpenTimeout  time.Duration
}

// ConnectionString monta a DSN do PostgreSQL.
func (d *DatabaseConfig) ConnectionString() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d",
		d.Host, d.User, d.Password, d.Name, d.Port)
	if d.SSLDisable {
		dsn += " sslmode=disable"
	}
	return dsn
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Load lê o .env (se existir) e as variáveis de ambiente.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Port:        v.GetInt("APP_PORT"),
			PortalPort:  v.GetInt("PORTAL_PORT"),
		},
		Database: DatabaseConfig{
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetInt("DB_PORT"),
			Name:       v.GetString("DB_NAME"),
			User:       v.GetString("DB_USERNAME"),
			Password:   v.GetString("DB_PASSWORD"),
			SecretID:   v.GetString("DB_SECRET_ID"),
			SSLDisable: v.GetBool("DB_SSL_MODE_DISABLE"),
		},
		Auth: AuthConfig{
			PrivateKeyPath: v.GetString("AUTH_RSA_PRIVATE_PATH"),
			KID:            v.GetString("AUTH_KID"),
			Issuer:         v.GetString("AUTH_ISSUER"),
			Audience:       v.GetString("AUTH_AUDIENCE"),
			AccessTTL:      v.GetDuration("AUTH_ACCESS_TTL"),
			RefreshTTL:     v.GetDuration("AUTH_REFRESH_TTL"),
			CookieSecure:   v.GetBool("COOKIE_SECURE"),
			JWKSURL:        v.GetString("AUTH_JWKS_URL"),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
			Timeout: v.GetDuration("BACKEND_TIMEOUT"),
		},
		OCR: ServicoExternoConfig{
			URL:     v.GetString("OCR_URL"),
			Token:   v.GetString("OCR_TOKEN"),
			Timeout: v.GetDuration("OCR_TIMEOUT"),
		},
		Matching: ServicoExternoConfig{
			URL:     v.GetString("MATCHING_URL"),
			Token:   v.GetString("MATCHING_TOKEN"),
			Timeout: v.GetDuration("MATCHING_TIMEOUT"),
		},
		Whatsapp: WhatsappConfig{
			GatewayURL:   strings.TrimRight(v.GetString("WHATSAPP_GATEWAY_URL"), "/"),
			APIKey:       v.GetString("WHATSAPP_API_KEY"),
			PollInterval: v.GetDuration("WHATSAPP_POLL_INTERVAL"),
			Timeout:      v.GetDuration("WHATSAPP_TIMEOUT"),
		},
		Storage: StorageConfig{
			Mode:                  v.GetString("STORAGE_MODE"),
			LocalBasePath:         v.GetString("STORAGE_LOCAL_PATH"),
			MinioEndpoint:         v.GetString("MINIO_ENDPOINT"),
			MinioAccessKey:        v.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey:        v.GetString("MINIO_SECRET_KEY"),
			MinioBucket:           v.GetString("MINIO_BUCKET"),
			MinioUseSSL:           v.GetBool("MINIO_USE_SSL"),
			CloudConnectionString: v.GetString("STORAGE_CLOUD_CONNECTION_STRING"),
			CloudContainer:        v.GetString("STORAGE_CLOUD_CONTAINER"),
			MaxUploadSizeMB:       v.GetInt64("STORAGE_MAX_UPLOAD_MB"),
		},
		Eventos: EventosConfig{
			NatsURL:     v.GetString("NATS_URL"),
			NatsSubject: v.GetString("NATS_SUBJECT"),
			WebhookURL:  v.GetString("NOTIFY_WEBHOOK_URL"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Server: ServerConfig{
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			PipelineIdle:    v.GetDuration("PORTAL_PIPELINE_IDLE"),
			CleanupCron:     v.GetString("PORTAL_CLEANUP_CRON"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerMinute: v.GetInt("RATE_LIMIT_RPM"),
		},
		Breaker: BreakerConfig{
			MinRequests:  v.GetUint32("BREAKER_MIN_REQUESTS"),
			FailureRatio: v.GetFloat64("BREAKER_FAILURE_RATIO"),
			OpenTimeout:  v.GetDuration("BREAKER_OPEN_TIMEOUT"),
		},
	}

	if cfg.Auth.JWKSURL == "" {
		cfg.Auth.JWKSURL = cfg.Backend.URL + "/.well-known/jwks.json"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "portal-ofertas")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("PORTAL_PORT", 8081)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "sistema")

	v.SetDefault("AUTH_ACCESS_TTL", 15*time.Minute)
	v.SetDefault("AUTH_REFRESH_TTL", 30*24*time.Hour)

	v.SetDefault("BACKEND_URL", "http://localhost:8080")
	v.SetDefault("BACKEND_TIMEOUT", 30*time.Second)
	v.SetDefault("OCR_TIMEOUT", 60*time.Second)
	v.SetDefault("MATCHING_TIMEOUT", 60*time.Second)

	v.SetDefault("WHATSAPP_POLL_INTERVAL", 5*time.Second)
	v.SetDefault("WHATSAPP_TIMEOUT", 30*time.Second)

	v.SetDefault("STORAGE_MODE", "local")
	v.SetDefault("STORAGE_LOCAL_PATH", "./storage")
	v.SetDefault("STORAGE_MAX_UPLOAD_MB", 20)
	v.SetDefault("NATS_SUBJECT", "ofertas.eventos")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("SERVER_READ_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("PORTAL_PIPELINE_IDLE", 30*time.Minute)
	v.SetDefault("PORTAL_CLEANUP_CRON", "@every 5m")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPM", 100)

	v.SetDefault("BREAKER_MIN_REQUESTS", 5)
	v.SetDefault("BREAKER_FAILURE_RATIO", 0.6)
	v.SetDefault("BREAKER_OPEN_TIMEOUT", 30*time.Second)
}

func (c *Config) validate() error {
	if c.App.Port <= 0 || c.App.PortalPort <= 0 {
		return fmt.Errorf("invalid port configuration")
	}
	if c.Whatsapp.PollInterval <= 0 {
		return fmt.Errorf("WHATSAPP_POLL_INTERVAL must be positive")
	}
	switch c.Storage.Mode {
	case "local", "minio", "azure":
	default:
		return fmt.Errorf("unsupported storage mode: %s", c.Storage.Mode)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
