/*
Package configs is responsible for loading and parsing the client's configuration settings.

Every setting is read from an environment variable with a default; the command
line flags of cmd/chatterbox override the loaded values.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultServerURL         = "http://localhost:8080"
	DefaultReconnectInterval = 5 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultSuppressWindow    = 1500 * time.Millisecond
	DefaultDownloadDir       = "downloads"
	DefaultSendRate          = 5.0
	DefaultSendBurst         = 10
	DefaultMaxUploadBytes    = 20 << 20
	DefaultHighlightStyle    = "github"
)

// AppConfig contains all configuration parameters required for the client to run.
type AppConfig struct {
	// General Settings
	Environment string

	// Chat Server Settings
	ServerURL         string
	AuthToken         string
	ReconnectInterval time.Duration
	PingInterval      time.Duration

	// Presentation Settings
	SuppressWindow time.Duration
	Notifications  bool
	HighlightStyle string
	NoColor        bool

	// Outbound Limits
	SendRate       float64
	SendBurst      int
	MaxUploadBytes int64

	// Local State
	DataDir     string
	DownloadDir string

	// S3 Download Mirror Settings
	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Prefix          string

	// Transcript Archive Settings
	DatabaseDSN string

	// Local Viewer Settings
	ViewPort       int
	AllowedOrigins []string
}

// IsDevelopment reports whether the client runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the client configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	// --- General Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}

	// --- Chat Server Settings ---
	cfg.ServerURL = os.Getenv("CHAT_SERVER_URL")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	cfg.AuthToken = strings.TrimSpace(os.Getenv("CHAT_TOKEN"))

	if cfg.ReconnectInterval, err = envDuration("CHAT_RECONNECT_INTERVAL", DefaultReconnectInterval); err != nil {
		return nil, err
	}
	if cfg.PingInterval, err = envDuration("CHAT_PING_INTERVAL", DefaultPingInterval); err != nil {
		return nil, err
	}

	// --- Presentation Settings ---
	if cfg.SuppressWindow, err = envDuration("CHAT_SUPPRESS_WINDOW", DefaultSuppressWindow); err != nil {
		return nil, err
	}
	if cfg.Notifications, err = envBool("CHAT_NOTIFICATIONS", true); err != nil {
		return nil, err
	}
	if cfg.NoColor, err = envBool("NO_COLOR", false); err != nil {
		// NO_COLOR is set by convention to any non-empty value
		cfg.NoColor = true
	}
	cfg.HighlightStyle = os.Getenv("CHAT_HIGHLIGHT_STYLE")
	if cfg.HighlightStyle == "" {
		cfg.HighlightStyle = DefaultHighlightStyle
	}

	// --- Outbound Limits ---
	if cfg.SendRate, err = envFloat("CHAT_SEND_RATE", DefaultSendRate); err != nil {
		return nil, err
	}
	if cfg.SendBurst, err = envInt("CHAT_SEND_BURST", DefaultSendBurst); err != nil {
		return nil, err
	}
	maxUpload, err := envInt("CHAT_MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	// --- Local State ---
	cfg.DataDir = os.Getenv("CHAT_DATA_DIR")
	if cfg.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = "."
		}
		cfg.DataDir = filepath.Join(base, "chatterbox")
	}
	cfg.DownloadDir = os.Getenv("CHAT_DOWNLOAD_DIR")
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = DefaultDownloadDir
	}

	// --- S3 Download Mirror Settings ---
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3Region = os.Getenv("S3_REGION")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
	cfg.S3Prefix = os.Getenv("S3_PREFIX")

	// --- Transcript Archive Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	// --- Local Viewer Settings ---
	if cfg.ViewPort, err = envInt("VIEW_PORT", 0); err != nil {
		return nil, err
	}
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the cross-field constraints of the configuration.
// It is called again after command line flags were applied.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("chat server URL %q must be an absolute http or https URL", c.ServerURL)
	}

	if c.ReconnectInterval <= 0 {
		return fmt.Errorf("reconnect interval must be positive, got %s", c.ReconnectInterval)
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("ping interval must be positive, got %s", c.PingInterval)
	}
	if c.SuppressWindow < 0 {
		return fmt.Errorf("suppress window must not be negative, got %s", c.SuppressWindow)
	}

	if c.SendRate < 0 || c.SendBurst < 0 {
		return fmt.Errorf("send rate and burst must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadBytes)
	}

	if c.ViewPort != 0 && (c.ViewPort < 1024 || c.ViewPort > 65535) {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.ViewPort, 1024, 65535)
	}

	if c.S3BucketName != "" && (c.S3AccessKeyID == "") != (c.S3SecretAccessKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	return nil
}

func envDuration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}

	// plain integers are milliseconds
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return d, nil
}

func envInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return n, nil
}

func envFloat(name string, def float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return f, nil
}

func envBool(name string, def bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return b, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
