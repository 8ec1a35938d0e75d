package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"vcontroller/internal/config"
	"vcontroller/internal/controller"
	"vcontroller/internal/device"
	"vcontroller/internal/keymap"
	"vcontroller/internal/logging"
	"vcontroller/internal/microservices/admin"
	"vcontroller/internal/microservices/tcp"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config validation failed: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger, err := logging.New(os.Stdout, level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	os.Exit(run(cfg, logger))
}

func run(cfg *config.Config, logger *slog.Logger) int {
	registry, err := keymap.LoadRegistry(cfg.ProfilesFile)
	if err != nil {
		logging.Fatal(logger, "load_profiles", err, "path", cfg.ProfilesFile)
		return 1
	}
	table, err := registry.Profile(cfg.Profile)
	if err != nil {
		logging.Fatal(logger, "select_profile", err)
		return 1
	}
	bus, _ := device.ParseBusType(cfg.DeviceBus)
	devCfg := device.DefaultConfig()
	devCfg.Name = cfg.DeviceName
	devCfg.Bus = bus
	devCfg.Version = uint16(cfg.DeviceVersion)

	// stop requests from clients, device failures and signals all end up here
	stopChan := make(chan string, 1)
	fatalChan := make(chan error, 1)
	requestStop := func(reason string) {
		select {
		case stopChan <- reason:
		default:
		}
	}

	ctrl := controller.New(cfg.ControllerName,
		device.NewSession(device.NewEvdevSink(), devCfg, table),
		controller.WithLogger(logger),
		controller.OnStopServer(func() { requestStop("client_request") }),
		controller.OnFatal(func(err error) {
			select {
			case fatalChan <- err:
			default:
			}
		}),
	)
	if err := ctrl.Start(); err != nil {
		logging.Fatal(logger, "device_open", err, "device", devCfg.Name)
		return 1
	}

	server := tcp.NewServer(tcp.ServerConfig{
		Addr:          cfg.ServerAddr(),
		MaxPending:    cfg.MaxPending,
		AcceptTimeout: cfg.AcceptTimeout,
		ReadTimeout:   cfg.ReadTimeout,
		RateLimit:     cfg.RateLimitPerSecond,
		RateBurst:     cfg.RateLimitBurst,
		Logger:        logger,
	}, ctrl)
	if err := server.Listen(); err != nil {
		logging.Fatal(logger, "bind", err, "addr", cfg.ServerAddr())
		_ = ctrl.Stop()
		return 1
	}

	logger.Info("starting_vc_server",
		"addr", server.Addr().String(),
		"controller", ctrl.Name(),
		"profile", table.Name(),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(); err != nil {
			errChan <- err
		}
	}()

	var adminSrv *admin.Server
	if addr := cfg.AdminAddr(); addr != "" {
		gin.SetMode(cfg.GinMode())
		adminSrv = admin.NewServer(addr, admin.NewHandler(ctrl, server.Manager()), logger)
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil {
				logger.Error("admin_server_error", "error", err)
			}
		}()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	code := 0
	select {
	case sig := <-sigChan:
		logger.Info("received_shutdown_signal", "signal", sig.String())
	case reason := <-stopChan:
		logger.Info("stop_requested", "reason", reason)
	case <-fatalChan:
		// the controller already logged the diagnostic
		code = 1
	case err := <-errChan:
		logger.Error("server_error", "error", err.Error())
		code = 1
	}

	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := adminSrv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("admin_shutdown_failed", "error", err)
		}
		cancel()
	}
	if err := server.Close(); err != nil {
		logger.Warn("server_close_failed", "error", err)
	}
	if err := ctrl.Stop(); err != nil {
		code = 1
	}
	logger.Info("server_stopped_gracefully")
	return code
}
