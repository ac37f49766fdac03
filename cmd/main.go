package main

import (
	"fmt"
	"imgtools/config"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "imgtools",
	Short: "Local image and document format conversion tools",
	Long: `imgtools converts files between formats without sending them anywhere:
images to a single PDF, PNG to JPG or WEBP, WEBP to PNG or JPG, SVG to PNG,
HTML to PDF and PDF to PNG. The same tools are served over HTTP by "serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd)
		cfgFile, _ := cmd.Flags().GetString("config")
		if err := config.Setup(viper.GetViper(), cfgFile); err != nil {
			return err
		}
		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded
		logger = config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(logger)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", "path", used)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./imgtools.yaml or ~/.config/imgtools/imgtools.yaml)")
	flags.String("page", "a4", "PDF page size: a3, a4, a5, letter, legal or WIDTHxHEIGHT in px (1px = 96/72pt)")
	flags.Bool("landscape", false, "swap the page axes")
	flags.String("backend", "gofpdf", "PDF writer: gofpdf (in memory) or stream (low memory)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"page":       "page",
	"landscape":  "landscape",
	"backend":    "backend",
	"log-level":  "log_level",
	"log-format": "log_format",
	"addr":       "server.addr",
	"body-limit": "server.body_limit",
}

func bindFlags(cmd *cobra.Command) {
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			viper.BindPFlag(key, f)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR]: %v\n", err)
		os.Exit(1)
	}
}
