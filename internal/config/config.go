package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string // empty disables idempotency
	RedisDB   int

	IdempTTLSecs int

	StorageRoot string
	LogoPath    string
	Timezone    string

	SMTPHost string // empty disables notifications
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	JWTSecret string

	SubmissionTimeout time.Duration
	MailTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxUploadMB       int

	LogLevel  string
	LogFormat string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", k, v)
	}
	return n, nil
}

func getenvDuration(k string, d time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return d, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (use 30s, 2m)", k, v)
	}
	return dur, nil
}

// Load reads the environment, after merging a .env file from the working
// directory when there is one. Variables already set win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "municipalidad"),
		MySQLUser: getenv("MYSQL_USER", "portal"),
		MySQLPass: getenv("MYSQL_PASS", "portal"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		StorageRoot: getenv("STORAGE_ROOT", "solicitudes"),
		LogoPath:    os.Getenv("LOGO_PATH"),
		Timezone:    getenv("TIMEZONE", "America/Santiago"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogFormat: getenv("LOG_FORMAT", "json"),
	}

	var errs []error
	var err error
	if c.RedisDB, err = getenvInt("REDIS_DB", 0); err != nil {
		errs = append(errs, err)
	}
	if c.IdempTTLSecs, err = getenvInt("IDEMPOTENCY_TTL_SECONDS", 300); err != nil {
		errs = append(errs, err)
	}
	if c.SMTPPort, err = getenvInt("SMTP_PORT", 587); err != nil {
		errs = append(errs, err)
	}
	if c.MaxUploadMB, err = getenvInt("MAX_UPLOAD_MB", 25); err != nil {
		errs = append(errs, err)
	}
	if c.SubmissionTimeout, err = getenvDuration("SUBMISSION_TIMEOUT", 60*time.Second); err != nil {
		errs = append(errs, err)
	}
	if c.MailTimeout, err = getenvDuration("MAIL_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}
	if c.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if strings.TrimSpace(c.StorageRoot) == "" {
		return errors.New("missing STORAGE_ROOT")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 bytes")
	}
	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return errors.New("SMTP_FROM is required when SMTP_HOST is set")
	}
	if c.SubmissionTimeout <= 0 || c.MailTimeout <= 0 {
		return errors.New("SUBMISSION_TIMEOUT and MAIL_TIMEOUT must be positive")
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (json, text)", c.LogFormat)
	}
	return nil
}

// ValidateDB is the subset the migrate command needs.
func (c *Config) ValidateDB() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME; loc=UTC keeps stored instants in UTC
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// MigrateURL is the golang-migrate form of the DSN.
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true",
		url.QueryEscape(c.MySQLUser), url.QueryEscape(c.MySQLPass), c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) Location() (*time.Location, error) { return time.LoadLocation(c.Timezone) }

func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
