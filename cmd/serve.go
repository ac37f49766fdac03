package main

import (
	"context"
	"imgtools/converter"
	"imgtools/server"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve every tool over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().String("body-limit", "64M", "maximum request body size")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	page, err := cfg.PageSize()
	if err != nil {
		return err
	}
	backend, err := cfg.PDFBackend()
	if err != nil {
		return err
	}
	conv, err := newConverter()
	if err != nil {
		return err
	}
	srv := server.New(
		converter.NewAssembler(page, backend, logger),
		conv,
		converter.ToolOptions{Scale: cfg.SVG.Scale, DPI: cfg.PDF2PNG.DPI},
		cfg.Server.BodyLimit,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	return srv.Shutdown(10 * time.Second)
}
