// internal/protocol/tcp_listener.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"receipt-emulator/internal/model"
	"receipt-emulator/internal/utils"
)

// TCPConfig represents the raw print port configuration
type TCPConfig struct {
	Address     string        `json:"address"`
	IdleTimeout time.Duration `json:"idle_timeout"`
	MaxJobBytes int           `json:"max_job_bytes"`
}

// TCPListener treats every connection as one print job that ends when the
// client closes its side
type TCPListener struct {
	config   *TCPConfig
	handler  JobHandler
	logger   *utils.ListenerLogger
	listener net.Listener
	conns    map[net.Conn]struct{}
	mutex    sync.Mutex
	wg       sync.WaitGroup
	stats    *statsRecorder
}

// NewTCPListener creates a new TCP listener
func NewTCPListener(config *TCPConfig, handler JobHandler, logger *zap.Logger) *TCPListener {
	return &TCPListener{
		config:  config,
		handler: handler,
		logger:  utils.NewListenerLogger(logger, "tcp", config.Address),
		conns:   make(map[net.Conn]struct{}),
		stats:   newStatsRecorder("tcp", config.Address),
	}
}

// Name returns the listener name
func (l *TCPListener) Name() string {
	return "tcp"
}

// Addr returns the bound address once started
func (l *TCPListener) Addr() net.Addr {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Start binds the port and accepts connections in the background
func (l *TCPListener) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", l.config.Address)
	if err != nil {
		l.stats.recordError(err)
		return fmt.Errorf("failed to listen on %s: %w", l.config.Address, err)
	}

	l.mutex.Lock()
	l.listener = ln
	l.mutex.Unlock()

	l.stats.update(func(st *ListenerStats) { st.Address = ln.Addr().String() })
	l.stats.setRunning(true)
	l.logger.Info("TCP listener started", zap.String("bound_address", ln.Addr().String()))

	l.wg.Add(1)
	go l.acceptLoop(ctx, ln)
	return nil
}

// Stop closes the port and ends open connections. Bytes already received on
// those connections are still delivered as jobs.
func (l *TCPListener) Stop() error {
	l.mutex.Lock()
	ln := l.listener
	l.listener = nil
	for conn := range l.conns {
		conn.SetReadDeadline(time.Now())
	}
	l.mutex.Unlock()

	if ln == nil {
		return nil
	}

	err := ln.Close()
	l.wg.Wait()
	l.stats.setRunning(false)
	l.logger.Info("TCP listener stopped")

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close TCP listener: %w", err)
	}
	return nil
}

// Stats returns listener statistics
func (l *TCPListener) Stats() ListenerStats {
	return l.stats.snapshot()
}

func (l *TCPListener) acceptLoop(ctx context.Context, ln net.Listener) {
	defer l.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.stats.recordError(err)
			l.logger.Warn("Failed to accept connection", zap.Error(err))
			time.Sleep(100 * time.Millisecond)
			continue
		}

		l.mutex.Lock()
		if l.listener == nil {
			l.mutex.Unlock()
			conn.Close()
			return
		}
		l.conns[conn] = struct{}{}
		l.wg.Add(1)
		l.mutex.Unlock()

		l.stats.recordConnection()
		go l.handleConn(ctx, conn)
	}
}

func (l *TCPListener) handleConn(ctx context.Context, conn net.Conn) {
	defer l.wg.Done()
	defer func() {
		l.mutex.Lock()
		delete(l.conns, conn)
		l.mutex.Unlock()
		conn.Close()
	}()

	peer := conn.RemoteAddr().String()
	l.logger.LogConnection("connected", peer, nil)

	data, err := l.readJob(conn)
	if err != nil {
		l.stats.recordError(err)
		l.logger.LogConnection("read_failed", peer, err)
		return
	}
	l.logger.LogConnection("disconnected", peer, nil)

	if len(data) == 0 {
		return
	}

	l.stats.recordJob()
	job := model.NewJob(model.SourceTCP, peer, data)
	if err := l.handler.HandleJob(context.WithoutCancel(ctx), job); err != nil {
		l.stats.recordError(err)
		l.logger.Error("Failed to handle job", zap.String("job_id", job.ID.String()), zap.Error(err))
	}
}

// readJob reads until EOF. An idle timeout or a stop request also ends the job.
func (l *TCPListener) readJob(conn net.Conn) ([]byte, error) {
	var data []byte
	buf := make([]byte, 4096)

	for {
		if l.config.IdleTimeout > 0 && !l.stopping() {
			conn.SetReadDeadline(time.Now().Add(l.config.IdleTimeout))
		}

		n, err := conn.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			l.stats.recordBytes(n)
			l.logger.Debug("Received bytes", zap.Int("bytes", n), zap.String("peer", conn.RemoteAddr().String()))
		}

		// a job of exactly max_job_bytes is complete; only a byte past it truncates
		if l.config.MaxJobBytes > 0 && len(data) > l.config.MaxJobBytes {
			l.logger.Warn("Job exceeds maximum size, truncating",
				zap.Int("max_job_bytes", l.config.MaxJobBytes),
			)
			return data[:l.config.MaxJobBytes], nil
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			return data, nil
		case errors.Is(err, os.ErrDeadlineExceeded):
			return data, nil
		default:
			return nil, err
		}
	}
}

func (l *TCPListener) stopping() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.listener == nil
}
