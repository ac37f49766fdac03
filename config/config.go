package config

import (
	"errors"
	"fmt"
	"imgtools/contracts"
	"imgtools/converter"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	AppName   = "imgtools"
	EnvPrefix = "IMGTOOLS"
)

// Config is the merged view of defaults, config file, .env and IMGTOOLS_*
// environment variables and command line flags.
type Config struct {
	Page      string        `mapstructure:"page"`
	Landscape bool          `mapstructure:"landscape"`
	Backend   string        `mapstructure:"backend"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Server    ServerConfig  `mapstructure:"server"`
	HTML      HTMLConfig    `mapstructure:"html"`
	SVG       SVGConfig     `mapstructure:"svg"`
	PDF2PNG   PDF2PNGConfig `mapstructure:"pdf2png"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	BodyLimit string `mapstructure:"body_limit"`
}

type HTMLConfig struct {
	ChromePath string        `mapstructure:"chrome_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type SVGConfig struct {
	Scale float64 `mapstructure:"scale"`
}

type PDF2PNGConfig struct {
	DPI float64 `mapstructure:"dpi"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("page", "a4")
	v.SetDefault("landscape", false)
	v.SetDefault("backend", string(contracts.BackendGofpdf))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.body_limit", "64M")
	v.SetDefault("html.chrome_path", "")
	v.SetDefault("html.timeout", converter.DefaultHTMLTimeout)
	v.SetDefault("svg.scale", converter.DefaultSVGScale)
	v.SetDefault("pdf2png.dpi", converter.DefaultPDFDPI)
}

// Setup prepares v to read imgtools.yaml from the working directory or
// ~/.config/imgtools, or cfgFile when given. A .env file is loaded into the
// environment first, without overriding variables already set.
func Setup(v *viper.Viper, cfgFile string) error {
	_ = godotenv.Load(".env")

	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if _, err := cfg.PageSize(); err != nil {
		return nil, err
	}
	if _, err := cfg.PDFBackend(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) PageSize() (contracts.PageSize, error) {
	return converter.ParsePageSize(c.Page, c.Landscape)
}

func (c *Config) PDFBackend() (contracts.Backend, error) {
	switch b := contracts.Backend(strings.ToLower(c.Backend)); b {
	case contracts.BackendGofpdf, contracts.BackendStream:
		return b, nil
	case "":
		return contracts.BackendGofpdf, nil
	default:
		return "", fmt.Errorf("unknown backend %q (want gofpdf or stream)", c.Backend)
	}
}

func (c *Config) HTMLPrinter() (*converter.HTMLPrinter, error) {
	page, err := c.PageSize()
	if err != nil {
		return nil, err
	}
	return &converter.HTMLPrinter{
		ChromePath: c.HTML.ChromePath,
		Timeout:    c.HTML.Timeout,
		Page:       page,
	}, nil
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(w io.Writer, level, format string) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOptions))
	}
	return slog.New(slog.NewTextHandler(w, handlerOptions))
}
