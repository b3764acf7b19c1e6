package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	flag "github.com/spf13/pflag"

	"ucdp/internal/api"
	"ucdp/internal/config"
	"ucdp/internal/engine"
	"ucdp/internal/logger"
	"ucdp/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to a YAML config file")
	dataFlag := flag.String("data", "", "path to the conflict dataset (or set UCDP_DATA_PATH env var)")
	addrFlag := flag.String("addr", "", "listen address (or set UCDP_LISTEN_ADDR env var)")
	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	if *dataFlag != "" {
		cfg.Data.Path = *dataFlag
	}
	if *addrFlag != "" {
		cfg.Server.Address = *addrFlag
	}
	if flag.CommandLine.Changed("verbose") {
		cfg.Verbose = *verboseFlag
	}

	log := logger.New(cfg.Verbose)
	slog.SetDefault(log)

	// 1. Initialize Echo (starts instantly)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger(log))
	e.Use(metrics.Middleware())

	// 2. Handler starts without data; /api answers 503 until the load lands
	h := api.NewHandler(cfg.Dashboard)
	h.RegisterRoutes(e)
	e.GET("/metrics", metrics.Handler())

	// 3. Load the dataset in the background
	go func() {
		log.Debug("loading conflict dataset", "path", cfg.Data.Path)
		t0 := time.Now()
		ds, err := engine.LoadSource(engine.Source{
			Path:      cfg.Data.Path,
			Fallbacks: cfg.Data.Fallbacks,
			Logger:    log,
		})
		if err != nil {
			metrics.RecordDatasetLoad(time.Since(t0), 0, 0, err)
			log.Error("failed to load conflict dataset", "error", err)
			h.SetLoadError(err)
			return
		}
		metrics.RecordDatasetLoad(time.Since(t0), ds.Len(), ds.Dropped(), nil)
		h.SetData(ds)
	}()

	// 4. Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server ready (dataset loading in background)", "address", cfg.Server.Address)
		if err := e.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				log.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			log.Debug("request", attrs...)
			return nil
		},
	})
}
