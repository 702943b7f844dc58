// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "receipt-emulator/docs"
	"receipt-emulator/internal/config"
	"receipt-emulator/internal/database"
	"receipt-emulator/internal/escpos"
	"receipt-emulator/internal/event"
	"receipt-emulator/internal/handler"
	"receipt-emulator/internal/model"
	"receipt-emulator/internal/notify"
	"receipt-emulator/internal/protocol"
	"receipt-emulator/internal/repository"
	"receipt-emulator/internal/routes"
	"receipt-emulator/internal/service"
	"receipt-emulator/internal/storage"
	"receipt-emulator/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	store      *storage.ReceiptStore
	jobRepo    repository.JobRepository
	eventBus   *event.Bus
	jobService *service.JobService
	notifier   *notify.Notifier
	wsHandler  *handler.WebSocketHandler
	listeners  []protocol.Listener

	ctx    context.Context
	cancel context.CancelFunc
}

// @title Receipt Emulator API
// @version 1.0.0
// @description Virtual ESC/POS receipt printer: decodes print jobs received over TCP, serial or HTTP into rich and plain text receipts

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8085
// @BasePath /api/v1
func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "receipt-emulator",
		Short: "Virtual ESC/POS receipt printer",
		Long: `Listen for ESC/POS print jobs on a raw TCP port and a serial port,
decode every job and store its raw bytes, a rich text rendering and a plain
text rendering.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApplication(configPath)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("RECEIPT_EMULATOR_CONFIG"), "path to config file")
	rootCmd.AddCommand(newMigrateCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"database", app.initializeDatabase},
		{"repositories", app.initializeRepositories},
		{"storage", app.initializeStorage},
		{"services", app.initializeServices},
		{"notifier", app.initializeNotifier},
		{"listeners", app.initializeListeners},
		{"server", app.initializeServer},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			cancel()
			if app.database != nil {
				app.database.Close()
			}
			return nil, fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	return app, nil
}

// initializeDatabase connects to PostgreSQL and runs migrations when enabled
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, keeping job index in memory")
		return nil
	}

	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	migrator := database.NewMigrator(db, app.logger)
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() error {
	if app.database != nil {
		app.jobRepo = repository.NewJobRepository(app.database, app.logger)
	} else {
		app.jobRepo = repository.NewMemoryJobRepository()
	}
	return nil
}

// initializeStorage prepares the receipt output directory
func (app *Application) initializeStorage() error {
	options := app.config.DecoderOptions()
	app.store = storage.NewReceiptStore(app.config.Storage.OutputDir, options.OutputCodepage, app.logger)
	if err := app.store.Init(); err != nil {
		return err
	}

	app.logger.Info("Receipt storage ready", zap.String("output_dir", app.store.Dir()))
	return nil
}

// initializeServices creates the event bus and the job service
func (app *Application) initializeServices() error {
	app.eventBus = event.NewBus(app.logger)
	go app.eventBus.Start()

	transcriber := escpos.NewTranscriber(app.logger, app.config.DecoderOptions())
	app.jobService = service.NewJobService(transcriber, app.store, app.jobRepo, app.eventBus, app.logger)

	app.wsHandler = handler.NewWebSocketHandler(app.config.Security.AllowedOrigins, app.logger)
	go app.wsHandler.Run(app.ctx, app.eventBus.Subscribe(
		model.EventJobCompleted, model.EventJobFailed, model.EventListenerStarted, model.EventListenerStopped,
	))
	return nil
}

// initializeNotifier starts the job notification sound
func (app *Application) initializeNotifier() error {
	if !app.config.Notifier.Enabled {
		return nil
	}

	player, err := notify.NewPlayer(app.config.Notifier.Player)
	if err != nil {
		return err
	}

	app.notifier = notify.NewNotifier(player, app.config.Notifier.Cooldown, app.logger)
	app.notifier.Start(app.ctx, app.eventBus.Subscribe(model.EventJobCompleted))

	app.logger.Info("Notifier started", zap.String("player", player.Name()))
	return nil
}

// initializeListeners creates the printer port listeners
func (app *Application) initializeListeners() error {
	listeners, err := protocol.CreateListeners(app.config, app.jobService, app.logger)
	if err != nil {
		return err
	}
	app.listeners = listeners
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	if !app.config.Server.Enabled {
		return nil
	}

	// a nil *database.DB must not become a non-nil interface
	var db handler.HealthChecker
	if app.database != nil {
		db = app.database
	}

	routerManager := routes.NewRouter(app.config, app.logger, db, app.jobService, app.listeners, app.wsHandler)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.server.Addr))
	return nil
}

// Run starts every component and blocks until a shutdown signal arrives
func (app *Application) Run() error {
	serviceLogger := utils.NewServiceLogger(app.logger, "receipt-emulator")
	serviceLogger.LogServiceStart(app.config.App.Version, app.config)

	started := 0
	for _, l := range app.listeners {
		if err := l.Start(app.ctx); err != nil {
			// a missing serial port must not take the TCP port down
			app.logger.Warn("Listener failed to start", zap.String("listener", l.Name()), zap.Error(err))
			continue
		}
		started++
		app.publishListenerEvent(model.EventListenerStarted, l)
	}
	if started == 0 && app.server == nil {
		app.shutdown("no listener could be started")
		return errors.New("no listener could be started and the HTTP server is disabled")
	}

	serverErr := make(chan error, 1)
	if app.server != nil {
		go func() {
			app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))
			if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	go app.jobService.RunCleanup(app.ctx, app.config.Storage.CleanupInterval, app.config.Storage.Retention)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		return app.shutdown("shutdown signal received")
	case err := <-serverErr:
		app.logger.Error("HTTP server failed", zap.Error(err))
		app.shutdown("HTTP server failed")
		return fmt.Errorf("HTTP server failed: %w", err)
	}
}

// shutdown stops listeners first so pending jobs are still stored, then the
// HTTP server, the background workers and the database
func (app *Application) shutdown(reason string) error {
	serviceLogger := utils.NewServiceLogger(app.logger, "receipt-emulator")
	serviceLogger.LogServiceStop(reason)

	var result *multierror.Error

	for _, l := range app.listeners {
		running := l.Stats().Running
		if err := l.Stop(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s listener: %w", l.Name(), err))
		}
		if running {
			app.publishListenerEvent(model.EventListenerStopped, l)
		}
	}

	if app.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.server.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("HTTP server: %w", err))
		} else {
			app.logger.Info("HTTP server stopped")
		}
	}

	app.cancel()
	app.eventBus.Stop()
	if app.notifier != nil {
		app.notifier.Wait()
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("database: %w", err))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		app.logger.Error("Shutdown completed with errors", zap.Error(err))
	} else {
		app.logger.Info("Application shutdown completed")
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Fprintf(os.Stderr, "Logger close error: %v\n", err)
	}

	return result.ErrorOrNil()
}

func (app *Application) publishListenerEvent(eventType model.EventType, l protocol.Listener) {
	stats := l.Stats()
	app.eventBus.Publish(model.Event{
		Type:   eventType,
		Source: l.Name(),
		Data: model.JSONObject{
			"listener":      l.Name(),
			"address":       stats.Address,
			"jobs_received": stats.JobsReceived,
		},
		Timestamp: time.Now(),
	})
}
