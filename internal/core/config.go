package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/Fuabioo/gitdl/internal/security"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults. The 5s network timeouts follow the upstream host's usual
// behaviour for small repositories; large archives need a longer
// http.download_timeout.
const (
	DefaultBranch          = "master"
	DefaultConnectTimeout  = 5 * time.Second
	DefaultTimeout         = 5 * time.Second
	DefaultDownloadTimeout = 5 * time.Second
	DefaultLockWait        = 15 * time.Second
	DefaultLockPoll        = 100 * time.Millisecond
	DefaultServerAddr      = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "pretty"
	DefaultUserAgent       = "gitdl"
)

// DefaultAllowedHosts limits references to GitHub unless configured otherwise.
var DefaultAllowedHosts = []string{"github.com"}

var branchPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Config holds the configuration for gitdl.
type Config struct {
	WorkDir      string         `mapstructure:"work_dir" yaml:"work_dir"`
	Branch       string         `mapstructure:"branch" yaml:"branch"`
	AllowedHosts []string       `mapstructure:"allowed_hosts" yaml:"allowed_hosts"`
	HTTP         HTTPConfig     `mapstructure:"http" yaml:"http"`
	Lock         LockConfig     `mapstructure:"lock" yaml:"lock"`
	Security     SecurityConfig `mapstructure:"security" yaml:"security"`
	Server       ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging      LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// HTTPConfig controls upstream requests.
type HTTPConfig struct {
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DownloadTimeout    time.Duration `mapstructure:"download_timeout" yaml:"download_timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	UserAgent          string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// LockConfig controls how long a request waits for an identical in-flight
// request before giving up with BUSY. A zero Wait fails fast.
type LockConfig struct {
	Wait         time.Duration `mapstructure:"wait" yaml:"wait"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// SecurityConfig holds limits applied to untrusted upstream archives.
type SecurityConfig struct {
	MaxExtractedSizeBytes uint64  `mapstructure:"max_extracted_size_bytes" yaml:"max_extracted_size_bytes"`
	MaxFileCount          int     `mapstructure:"max_file_count" yaml:"max_file_count"`
	MaxCompressionRatio   float64 `mapstructure:"max_compression_ratio" yaml:"max_compression_ratio"`
}

// ServerConfig holds HTTP proxy settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// LoadOptions selects the sources LoadConfig reads.
type LoadOptions struct {
	// ConfigFile is an explicit config file. When empty, config.yaml is
	// looked up in ConfigDir() and the current directory.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the process environment before
	// GITDL_* variables are read. Missing files are ignored.
	EnvFile string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	limits := security.DefaultLimits()
	return &Config{
		WorkDir:      DefaultWorkDir(),
		Branch:       DefaultBranch,
		AllowedHosts: append([]string(nil), DefaultAllowedHosts...),
		HTTP: HTTPConfig{
			ConnectTimeout:     DefaultConnectTimeout,
			Timeout:            DefaultTimeout,
			DownloadTimeout:    DefaultDownloadTimeout,
			InsecureSkipVerify: true,
			UserAgent:          DefaultUserAgent,
		},
		Lock: LockConfig{
			Wait:         DefaultLockWait,
			PollInterval: DefaultLockPoll,
		},
		Security: SecurityConfig{
			MaxExtractedSizeBytes: limits.MaxExtractedSize,
			MaxFileCount:          limits.MaxFileCount,
			MaxCompressionRatio:   limits.MaxCompressionRatio,
		},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			Metrics:         true,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// LoadConfig layers defaults, the config file, the dotenv file, GITDL_*
// environment variables and any flags already bound on v.
// A nil v gets a fresh viper instance.
func LoadConfig(v *viper.Viper, opts LoadOptions) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	setDefaults(v)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("GITDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("branch", d.Branch)
	v.SetDefault("allowed_hosts", d.AllowedHosts)

	v.SetDefault("http.connect_timeout", d.HTTP.ConnectTimeout)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.download_timeout", d.HTTP.DownloadTimeout)
	v.SetDefault("http.insecure_skip_verify", d.HTTP.InsecureSkipVerify)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)

	v.SetDefault("lock.wait", d.Lock.Wait)
	v.SetDefault("lock.poll_interval", d.Lock.PollInterval)

	v.SetDefault("security.max_extracted_size_bytes", d.Security.MaxExtractedSizeBytes)
	v.SetDefault("security.max_file_count", d.Security.MaxFileCount)
	v.SetDefault("security.max_compression_ratio", d.Security.MaxCompressionRatio)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WorkDir) == "" {
		return fmt.Errorf("work_dir must not be empty")
	}
	if !branchPattern.MatchString(c.Branch) {
		return fmt.Errorf("branch %q must match %s", c.Branch, branchPattern.String())
	}
	if c.HTTP.ConnectTimeout <= 0 || c.HTTP.Timeout <= 0 || c.HTTP.DownloadTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}
	if c.Lock.Wait < 0 {
		return fmt.Errorf("lock.wait must not be negative")
	}
	if c.Lock.PollInterval <= 0 {
		return fmt.Errorf("lock.poll_interval must be positive")
	}
	switch c.Logging.Format {
	case "pretty", "json":
	default:
		return fmt.Errorf("logging.format must be \"pretty\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// ToSecurityLimits converts the config to security.Limits for use with security package.
func (c *Config) ToSecurityLimits() security.Limits {
	return security.Limits{
		MaxExtractedSize:    c.Security.MaxExtractedSizeBytes,
		MaxFileCount:        c.Security.MaxFileCount,
		MaxCompressionRatio: c.Security.MaxCompressionRatio,
	}
}

// DefaultWorkDir returns the default working root.
// It follows the XDG Base Directory Specification:
// - $XDG_CACHE_HOME/gitdl/work
// - ~/.cache/gitdl/work
// - <os temp dir>/gitdl/work when no home directory is known
func DefaultWorkDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitdl", "work")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "gitdl", "work")
	}
	return filepath.Join(home, ".cache", "gitdl", "work")
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitdl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "gitdl")
}
