// internal/protocol/serial_listener.go
package protocol

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"receipt-emulator/internal/model"
	"receipt-emulator/internal/utils"
)

// SerialConfig represents the serial print port configuration
type SerialConfig struct {
	Port              string        `json:"port"`
	BaudRate          int           `json:"baud_rate"`
	DataBits          int           `json:"data_bits"`
	StopBits          int           `json:"stop_bits"`
	Parity            string        `json:"parity"`
	InactivityTimeout time.Duration `json:"inactivity_timeout"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	MaxJobBytes       int           `json:"max_job_bytes"`
}

// portReader is the part of serial.Port the listener needs. Read returns
// (0, nil) when the read timeout elapses without data.
type portReader interface {
	Read(p []byte) (int, error)
	Close() error
}

type portOpener func(config *SerialConfig) (portReader, error)

// openSerialPort opens a real serial port
func openSerialPort(config *SerialConfig) (portReader, error) {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
	}

	switch config.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}

	switch config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		mode.Parity = serial.NoParity
	}

	port, err := serial.Open(config.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return port, nil
}

// ListSerialPorts returns the serial ports present on this machine
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// jobFramer splits a serial byte stream into jobs. A job ends once no byte
// has arrived for the inactivity timeout or the buffer reaches max bytes.
type jobFramer struct {
	buf      []byte
	lastData time.Time
	timeout  time.Duration
	max      int
}

// Add appends received bytes, dropping anything beyond max
func (f *jobFramer) Add(p []byte, now time.Time) (dropped int) {
	if len(p) == 0 {
		return 0
	}
	f.lastData = now
	if f.max > 0 && len(f.buf)+len(p) > f.max {
		keep := f.max - len(f.buf)
		f.buf = append(f.buf, p[:keep]...)
		return len(p) - keep
	}
	f.buf = append(f.buf, p...)
	return 0
}

// Due reports whether the buffered job is complete
func (f *jobFramer) Due(now time.Time) bool {
	if len(f.buf) == 0 {
		return false
	}
	if f.max > 0 && len(f.buf) >= f.max {
		return true
	}
	return now.Sub(f.lastData) >= f.timeout
}

// Take returns the buffered job and resets the framer
func (f *jobFramer) Take() []byte {
	data := f.buf
	f.buf = nil
	return data
}

// Pending returns the number of buffered bytes
func (f *jobFramer) Pending() int {
	return len(f.buf)
}

// SerialListener reads a serial port and frames jobs by inactivity
type SerialListener struct {
	config   *SerialConfig
	handler  JobHandler
	logger   *utils.ListenerLogger
	open     portOpener
	port     portReader
	stopping atomic.Bool
	mutex    sync.Mutex
	wg       sync.WaitGroup
	stats    *statsRecorder
}

// NewSerialListener creates a new serial listener
func NewSerialListener(config *SerialConfig, handler JobHandler, logger *zap.Logger) *SerialListener {
	return &SerialListener{
		config:  config,
		handler: handler,
		logger:  utils.NewListenerLogger(logger, "serial", config.Port),
		open:    openSerialPort,
		stats:   newStatsRecorder("serial", config.Port),
	}
}

// Name returns the listener name
func (l *SerialListener) Name() string {
	return "serial"
}

// Start opens the port and reads it in the background
func (l *SerialListener) Start(ctx context.Context) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.port != nil {
		return nil
	}

	port, err := l.open(l.config)
	if err != nil {
		l.stats.recordError(err)
		l.logger.Error("Failed to open serial port",
			zap.Error(err),
			zap.Int("baud_rate", l.config.BaudRate),
		)
		return err
	}

	l.port = port
	l.stopping.Store(false)
	l.stats.setRunning(true)
	l.logger.Info("Serial listener started",
		zap.Int("baud_rate", l.config.BaudRate),
		zap.Duration("inactivity_timeout", l.config.InactivityTimeout),
	)

	l.wg.Add(1)
	go l.readLoop(ctx, port)
	return nil
}

// Stop closes the port. A partially received job is delivered before Stop
// returns.
func (l *SerialListener) Stop() error {
	l.mutex.Lock()
	port := l.port
	l.port = nil
	l.mutex.Unlock()

	if port == nil {
		return nil
	}

	l.stopping.Store(true)
	err := port.Close()
	l.wg.Wait()
	l.stats.setRunning(false)
	l.logger.Info("Serial listener stopped")

	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Stats returns listener statistics
func (l *SerialListener) Stats() ListenerStats {
	return l.stats.snapshot()
}

func (l *SerialListener) readLoop(ctx context.Context, port portReader) {
	defer l.wg.Done()

	framer := &jobFramer{timeout: l.config.InactivityTimeout, max: l.config.MaxJobBytes}
	buf := make([]byte, 4096)

	for {
		n, err := port.Read(buf)
		now := time.Now()

		if n > 0 {
			l.stats.recordBytes(n)
			if dropped := framer.Add(buf[:n], now); dropped > 0 {
				l.logger.Warn("Job exceeds maximum size, dropping bytes",
					zap.Int("dropped_bytes", dropped),
					zap.Int("max_job_bytes", l.config.MaxJobBytes),
				)
			}
		}

		if err != nil || l.stopping.Load() {
			failed := err != nil && !l.stopping.Load()
			if failed {
				l.stats.recordError(err)
				l.logger.Error("Serial read failed", zap.Error(err))
			}
			if framer.Pending() > 0 {
				l.deliver(ctx, l.config.Port+"-onclose", framer.Take())
			}
			if failed {
				l.release(port)
			}
			return
		}

		if framer.Due(now) {
			l.deliver(ctx, l.config.Port, framer.Take())
		}
	}
}

// release marks the listener stopped after a read failure so Start can reopen
// the port. It is a no-op when Stop already took the port.
func (l *SerialListener) release(port portReader) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.port != port {
		return
	}
	l.port = nil
	if err := port.Close(); err != nil {
		l.logger.Warn("Failed to close serial port after read failure", zap.Error(err))
	}
	l.stats.setRunning(false)
	l.logger.Warn("Serial listener stopped after read failure")
}

func (l *SerialListener) deliver(ctx context.Context, origin string, data []byte) {
	l.stats.recordJob()
	job := model.NewJob(model.SourceSerial, origin, data)
	if err := l.handler.HandleJob(context.WithoutCancel(ctx), job); err != nil {
		l.stats.recordError(err)
		l.logger.Error("Failed to handle job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}
