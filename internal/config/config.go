// Package config loads asxhub settings from defaults, an optional YAML file
// and ASXHUB_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. ASXHUB_LOG_LEVEL.
const EnvPrefix = "ASXHUB"

// FileName is the config file looked up in the data directory.
const FileName = "asxhub.yaml"

// Config holds application configuration.
type Config struct {
	DataDir      string `mapstructure:"data_dir"`
	PluginDir    string `mapstructure:"plugin_dir"`
	ToolsDir     string `mapstructure:"tools_dir"`
	DownloadsDir string `mapstructure:"downloads_dir"`
	HostsFile    string `mapstructure:"hosts_file"`
	DryRun       bool   `mapstructure:"dry_run"`

	Log      LogConfig                `mapstructure:"log"`
	Analyzer AnalyzerConfig           `mapstructure:"analyzer"`
	Download DownloadConfig           `mapstructure:"download"`
	Assets   map[string]AssetOverride `mapstructure:"assets"`

	// File is the config file that was read, empty when none was.
	File string `mapstructure:"-"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" or "json"
}

// AnalyzerConfig holds status snapshot settings.
type AnalyzerConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	Workers      int           `mapstructure:"workers"`
	SnapshotFile string        `mapstructure:"snapshot_file"`
}

// DownloadConfig holds HTTP download settings.
type DownloadConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// AssetOverride replaces the URL or checksum of a helper asset.
type AssetOverride struct {
	URL    string `mapstructure:"url"`
	SHA256 string `mapstructure:"sha256"`
}

// DefaultDataDir returns %LOCALAPPDATA%\ASXHub on Windows and ~/.asxhub elsewhere.
func DefaultDataDir() string {
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, "ASXHub")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".asxhub"
	}
	return filepath.Join(home, ".asxhub")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("plugin_dir", "")
	v.SetDefault("tools_dir", "")
	v.SetDefault("downloads_dir", "")
	v.SetDefault("hosts_file", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("analyzer.cache_ttl", 5*time.Minute)
	v.SetDefault("analyzer.workers", 4)
	v.SetDefault("analyzer.snapshot_file", "")
	v.SetDefault("download.timeout", 5*time.Minute)
	v.SetDefault("download.user_agent", "ASXHub")
}

// Load reads configuration. path is the --config flag; when empty,
// ASXHUB_CONFIG and then <data_dir>/asxhub.yaml are tried. An explicit file
// must exist, the data directory one is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(v.GetString("data_dir"), FileName)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	used := ""
	if err := v.ReadInConfig(); err != nil {
		if explicit || !missing(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		used = path
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.File = used
	c.fill()
	return c, nil
}

func missing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
}

// Default returns the configuration used when no file or environment is set.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	c.fill()
	return c
}

// fill derives the directories left empty from DataDir.
func (c *Config) fill() {
	if c.PluginDir == "" {
		c.PluginDir = filepath.Join(c.DataDir, "plugins")
	}
	if c.ToolsDir == "" {
		c.ToolsDir = filepath.Join(c.DataDir, "tools")
	}
	if c.DownloadsDir == "" {
		c.DownloadsDir = filepath.Join(c.DataDir, "downloads")
	}
	if c.Analyzer.SnapshotFile == "" {
		c.Analyzer.SnapshotFile = filepath.Join(c.DataDir, "tweak_status.json")
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.Analyzer.Workers <= 0 {
		errs = append(errs, fmt.Errorf("analyzer.workers must be positive, got %d", c.Analyzer.Workers))
	}
	if c.Analyzer.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("analyzer.cache_ttl must be positive, got %s", c.Analyzer.CacheTTL))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("download.timeout must be positive, got %s", c.Download.Timeout))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	for name, a := range c.Assets {
		if a.SHA256 != "" && len(a.SHA256) != 64 {
			errs = append(errs, fmt.Errorf("assets.%s.sha256 must be 64 hex characters", name))
		}
	}
	return errors.Join(errs...)
}
