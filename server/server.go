package server

import (
	"context"
	"errors"
	"imgtools/converter"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
)

// Server exposes every conversion tool as an upload endpoint answering with
// the converted file as an attachment.
type Server struct {
	Echo      *echo.Echo
	Assembler *converter.Assembler
	Converter *converter.Converter
	Defaults  converter.ToolOptions
	Logger    *slog.Logger
}

func New(assembler *converter.Assembler, conv *converter.Converter, defaults converter.ToolOptions, bodyLimit string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		Echo:      e,
		Assembler: assembler,
		Converter: conv,
		Defaults:  defaults,
		Logger:    logger,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return ulid.Make().String() },
	}))
	e.Use(middleware.Recover())
	if bodyLimit != "" {
		e.Use(middleware.BodyLimit(bodyLimit))
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("id", v.RequestID),
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	}))

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	api := s.Echo.Group("/api")
	api.GET("/tools", s.ListTools)
	api.POST("/image-to-pdf", s.ImageToPDF)
	api.POST("/convert/:tool", s.ConvertFile)
}

func (s *Server) Start(addr string) error {
	s.Logger.Info("listening", "addr", addr)
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Echo.Shutdown(ctx)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, converter.ErrEmptyInput),
		errors.Is(err, converter.ErrUnsupportedInput),
		errors.Is(err, converter.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, converter.ErrBackendUnavailable):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := statusFor(err)
	message := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, map[string]string{"error": message})
	}
	if err != nil {
		s.Logger.Error("writing error response", "error", err)
	}
}
