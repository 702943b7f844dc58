// internal/utils/logger.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"receipt-emulator/internal/config"
)

// LoggerManager manages application logging
type LoggerManager struct {
	logger *zap.Logger
	config *config.LoggingConfig
}

// NewLogger creates a new logger instance based on configuration
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	manager := &LoggerManager{
		config: cfg,
	}

	logger, err := manager.createLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	manager.logger = logger
	return logger, nil
}

// createLogger creates the zap logger with proper configuration
func (lm *LoggerManager) createLogger() (*zap.Logger, error) {
	encoderConfig := lm.getEncoderConfig()

	var encoder zapcore.Encoder
	switch lm.config.Format {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writeSyncer, err := lm.getWriteSyncer()
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	level, err := ParseLevel(lm.config.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// getEncoderConfig returns encoder configuration based on format
func (lm *LoggerManager) getEncoderConfig() zapcore.EncoderConfig {
	config := zap.NewProductionEncoderConfig()

	config.TimeKey = "timestamp"
	config.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	config.LevelKey = "level"
	config.EncodeLevel = zapcore.LowercaseLevelEncoder
	config.CallerKey = "caller"
	config.EncodeCaller = zapcore.ShortCallerEncoder
	config.MessageKey = "message"
	config.StacktraceKey = "stacktrace"

	// Console format customizations
	if lm.config.Format == "console" {
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}

	return config
}

// getWriteSyncer returns write syncer based on output configuration
func (lm *LoggerManager) getWriteSyncer() (zapcore.WriteSyncer, error) {
	switch lm.config.Output {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	output := lm.config.Output
	if output == "" {
		output = "./logs/receipt-emulator.log"
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// File output with rotation
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   output,
		MaxSize:    lm.config.MaxSize, // MB
		MaxBackups: lm.config.MaxBackups,
		MaxAge:     lm.config.MaxAge, // days
		Compress:   lm.config.Compress,
	}), nil
}

// ParseLevel maps a configuration level name to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// ListenerLogger wraps zap.Logger with listener-specific fields
type ListenerLogger struct {
	*zap.Logger
	protocol string
	address  string
}

// NewListenerLogger creates a listener-specific logger
func NewListenerLogger(baseLogger *zap.Logger, protocol, address string) *ListenerLogger {
	logger := baseLogger.With(
		zap.String("protocol", protocol),
		zap.String("address", address),
		zap.String("component", "listener"),
	)

	return &ListenerLogger{
		Logger:   logger,
		protocol: protocol,
		address:  address,
	}
}

// LogConnection logs connection events
func (ll *ListenerLogger) LogConnection(action, peer string, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("peer", peer),
	}

	if err != nil {
		fields = append(fields, zap.Error(err))
		ll.Warn("Listener connection event", fields...)
	} else {
		ll.Debug("Listener connection event", fields...)
	}
}

// JobLogger provides structured logging for one print job
type JobLogger struct {
	logger    *zap.Logger
	jobID     string
	startTime time.Time
}

// NewJobLogger creates a job-specific logger
func NewJobLogger(baseLogger *zap.Logger, jobID, source string) *JobLogger {
	logger := baseLogger.With(
		zap.String("job_id", jobID),
		zap.String("source", source),
		zap.String("component", "job"),
	)

	return &JobLogger{
		logger:    logger,
		jobID:     jobID,
		startTime: time.Now(),
	}
}

// Logger returns the underlying zap logger
func (jl *JobLogger) Logger() *zap.Logger {
	return jl.logger
}

// Start logs job processing start
func (jl *JobLogger) Start(fields ...zap.Field) {
	jl.logger.Debug("Job processing started", fields...)
}

// Success logs successful job completion
func (jl *JobLogger) Success(fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Duration("duration", time.Since(jl.startTime)),
		zap.Bool("success", true),
	}, fields...)

	jl.logger.Info("Job processed", allFields...)
}

// Error logs job failure
func (jl *JobLogger) Error(err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Duration("duration", time.Since(jl.startTime)),
		zap.Bool("success", false),
		zap.Error(err),
	}, fields...)

	jl.logger.Error("Job processing failed", allFields...)
}

// ServiceLogger provides service-level logging functionality
type ServiceLogger struct {
	*zap.Logger
	serviceName string
}

// NewServiceLogger creates a service-specific logger
func NewServiceLogger(baseLogger *zap.Logger, serviceName string) *ServiceLogger {
	logger := baseLogger.With(
		zap.String("service", serviceName),
		zap.String("component", "service"),
	)

	return &ServiceLogger{
		Logger:      logger,
		serviceName: serviceName,
	}
}

// LogServiceStart logs service startup
func (sl *ServiceLogger) LogServiceStart(version string, config interface{}) {
	sl.Info("Service starting",
		zap.String("version", version),
		zap.Any("config", config),
	)
}

// LogServiceStop logs service shutdown
func (sl *ServiceLogger) LogServiceStop(reason string) {
	sl.Info("Service stopping",
		zap.String("reason", reason),
	)
}

// APIRequest describes one served HTTP request
type APIRequest struct {
	Method     string
	Path       string
	ClientIP   string
	UserAgent  string
	RequestID  string
	StatusCode int
	BytesIn    int64
	BytesOut   int
	Duration   time.Duration
}

// LogAPIRequest logs a served request; 4xx responses log at warn, 5xx at error
func (sl *ServiceLogger) LogAPIRequest(req APIRequest) {
	level := zapcore.InfoLevel
	if req.StatusCode >= 400 {
		level = zapcore.WarnLevel
	}
	if req.StatusCode >= 500 {
		level = zapcore.ErrorLevel
	}

	if ce := sl.Check(level, "API request"); ce != nil {
		ce.Write(
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("client_ip", req.ClientIP),
			zap.String("user_agent", req.UserAgent),
			zap.String("request_id", req.RequestID),
			zap.Int("status_code", req.StatusCode),
			zap.Int64("bytes_in", req.BytesIn),
			zap.Int("bytes_out", req.BytesOut),
			zap.Duration("duration", req.Duration),
		)
	}
}

// LogDatabaseQuery logs one repository operation at debug level, or at error
// level when it failed
func (sl *ServiceLogger) LogDatabaseQuery(operation string, duration time.Duration, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("operation", operation),
		zap.Duration("duration", duration),
	}, fields...)

	if err != nil {
		allFields = append(allFields, zap.Error(err))
		sl.Error("Database query failed", allFields...)
	} else {
		sl.Debug("Database query executed", allFields...)
	}
}

// LoggerWithRequestID adds request ID to logger
func LoggerWithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}

// LogError is a helper function for consistent error logging
func LogError(logger *zap.Logger, message string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.Error(err)}, fields...)
	logger.Error(message, allFields...)
}

// CloseLogger flushes buffered log entries
func CloseLogger(logger *zap.Logger) error {
	return logger.Sync()
}
