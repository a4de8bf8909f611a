package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "INVLEDGER"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Log       LogConfig
	Auth      AuthConfig
	S3        S3Config
	Email     EmailConfig
	Mailbox   MailboxConfig
	Scheduler SchedulerConfig
	Ledger    LedgerConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadMB   int64         `mapstructure:"max_upload_mb"`
	WorkDir       string        `mapstructure:"work_dir"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds the operator account and JWT settings. With Enabled false
// the API is open.
type AuthConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenExpiry  time.Duration `mapstructure:"token_expiry"`
	Issuer       string        `mapstructure:"issuer"`
}

// S3Config holds the settings of the PDF archive.
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// EmailConfig holds operator notification settings.
type EmailConfig struct {
	Provider        string `mapstructure:"provider"`
	Region          string `mapstructure:"region"`
	FromAddress     string `mapstructure:"from_address"`
	FromName        string `mapstructure:"from_name"`
	OperatorAddress string `mapstructure:"operator_address"`
}

// MailboxConfig holds the IMAP inbox the supplier sends invoices to.
type MailboxConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	TLS            bool          `mapstructure:"tls"`
	Folder         string        `mapstructure:"folder"`
	From           string        `mapstructure:"from"`
	SubjectKeyword string        `mapstructure:"subject_keyword"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port of the IMAP server.
func (m *MailboxConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// SchedulerConfig holds the periodic mailbox polling settings.
type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// LedgerConfig holds reconciliation policy.
type LedgerConfig struct {
	MissingTotalAsZero bool `mapstructure:"missing_total_as_zero"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the INVLEDGER_
// prefix. A .env file in the working directory is read first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.work_dir", os.TempDir())
	v.SetDefault("server.shutdown_grace", "10s")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "invoiceledger")
	v.SetDefault("db.password", "invoiceledger")
	v.SetDefault("db.name", "invoiceledger")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.username", "operator")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_expiry", "12h")
	v.SetDefault("auth.issuer", "invoiceledger")

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "invoiceledger-archive")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "invoices")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@invoiceledger.local")
	v.SetDefault("email.from_name", "Invoice Ledger")
	v.SetDefault("email.operator_address", "")

	// Mailbox defaults
	v.SetDefault("mailbox.enabled", false)
	v.SetDefault("mailbox.host", "imap.gmail.com")
	v.SetDefault("mailbox.port", 993)
	v.SetDefault("mailbox.tls", true)
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("mailbox.from", "")
	v.SetDefault("mailbox.subject_keyword", "PDF")
	v.SetDefault("mailbox.timeout", "30s")

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.schedule", "@every 15m")

	v.SetDefault("ledger.missing_total_as_zero", false)

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	keys := []string{
		"server.port", "server.read_timeout", "server.write_timeout", "server.environment",
		"server.max_upload_mb", "server.work_dir", "server.shutdown_grace",
		"db.host", "db.port", "db.user", "db.password", "db.name", "db.sslmode", "db.max_open", "db.max_idle",
		"log.level", "log.format",
		"auth.enabled", "auth.username", "auth.password_hash", "auth.jwt_secret", "auth.token_expiry", "auth.issuer",
		"s3.enabled", "s3.region", "s3.bucket", "s3.endpoint", "s3.access_key", "s3.secret_key", "s3.prefix",
		"email.provider", "email.region", "email.from_address", "email.from_name", "email.operator_address",
		"mailbox.enabled", "mailbox.host", "mailbox.port", "mailbox.username", "mailbox.password",
		"mailbox.tls", "mailbox.folder", "mailbox.from", "mailbox.subject_keyword", "mailbox.timeout",
		"scheduler.enabled", "scheduler.schedule",
		"ledger.missing_total_as_zero",
		"cors.allowed_origins",
	}
	for _, key := range keys {
		_ = v.BindEnv(key, EnvName(key))
	}

	cfg := &Config{}

	// PaaS platforms set PORT; it applies unless the server port is set explicitly.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvName("server.port")) == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		MaxUploadMB:   v.GetInt64("server.max_upload_mb"),
		WorkDir:       v.GetString("server.work_dir"),
		ShutdownGrace: v.GetDuration("server.shutdown_grace"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Auth = AuthConfig{
		Enabled:      v.GetBool("auth.enabled"),
		Username:     v.GetString("auth.username"),
		PasswordHash: v.GetString("auth.password_hash"),
		JWTSecret:    v.GetString("auth.jwt_secret"),
		TokenExpiry:  v.GetDuration("auth.token_expiry"),
		Issuer:       v.GetString("auth.issuer"),
	}
	cfg.S3 = S3Config{
		Enabled:   v.GetBool("s3.enabled"),
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		Prefix:    v.GetString("s3.prefix"),
	}
	cfg.Email = EmailConfig{
		Provider:        v.GetString("email.provider"),
		Region:          v.GetString("email.region"),
		FromAddress:     v.GetString("email.from_address"),
		FromName:        v.GetString("email.from_name"),
		OperatorAddress: v.GetString("email.operator_address"),
	}
	cfg.Mailbox = MailboxConfig{
		Enabled:        v.GetBool("mailbox.enabled"),
		Host:           v.GetString("mailbox.host"),
		Port:           v.GetInt("mailbox.port"),
		Username:       v.GetString("mailbox.username"),
		Password:       v.GetString("mailbox.password"),
		TLS:            v.GetBool("mailbox.tls"),
		Folder:         v.GetString("mailbox.folder"),
		From:           v.GetString("mailbox.from"),
		SubjectKeyword: v.GetString("mailbox.subject_keyword"),
		Timeout:        v.GetDuration("mailbox.timeout"),
	}
	cfg.Scheduler = SchedulerConfig{
		Enabled:  v.GetBool("scheduler.enabled"),
		Schedule: v.GetString("scheduler.schedule"),
	}
	cfg.Ledger = LedgerConfig{
		MissingTotalAsZero: v.GetBool("ledger.missing_total_as_zero"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnvName returns the environment variable bound to a config key.
func EnvName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.PasswordHash == "" {
		return fmt.Errorf("config: %s is required when auth is enabled", EnvName("auth.password_hash"))
	}
	if c.Mailbox.Enabled && (c.Mailbox.Username == "" || c.Mailbox.Password == "") {
		return fmt.Errorf("config: mailbox credentials are required when the mailbox is enabled")
	}
	if c.Scheduler.Enabled && !c.Mailbox.Enabled {
		return fmt.Errorf("config: the scheduler needs the mailbox to be enabled")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("config: %s is required when the archive is enabled", EnvName("s3.bucket"))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
