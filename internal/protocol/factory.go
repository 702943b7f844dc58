// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"receipt-emulator/internal/config"
)

var validBaudRates = []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// CreateListeners creates every listener enabled in the configuration
func CreateListeners(cfg *config.Config, handler JobHandler, logger *zap.Logger) ([]Listener, error) {
	var listeners []Listener

	if cfg.Listener.TCP.Enabled {
		tcpConfig := &TCPConfig{
			Address:     cfg.GetTCPListenerAddr(),
			IdleTimeout: cfg.Listener.TCP.IdleTimeout,
			MaxJobBytes: cfg.Listener.TCP.MaxJobBytes,
		}

		logger.Info("Creating TCP listener", zap.String("address", tcpConfig.Address))
		listeners = append(listeners, NewTCPListener(tcpConfig, handler, logger))
	}

	if cfg.Listener.Serial.Enabled {
		serialConfig := &SerialConfig{
			Port:              cfg.Listener.Serial.Port,
			BaudRate:          cfg.Listener.Serial.BaudRate,
			DataBits:          cfg.Listener.Serial.DataBits,
			StopBits:          cfg.Listener.Serial.StopBits,
			Parity:            cfg.Listener.Serial.Parity,
			InactivityTimeout: cfg.Listener.Serial.InactivityTimeout,
			ReadTimeout:       cfg.Listener.Serial.ReadTimeout,
			MaxJobBytes:       cfg.Listener.Serial.MaxJobBytes,
		}
		if err := ValidateSerialConfig(serialConfig); err != nil {
			return nil, err
		}

		logger.Info("Creating serial listener",
			zap.String("port", serialConfig.Port),
			zap.Int("baud_rate", serialConfig.BaudRate),
		)
		listeners = append(listeners, NewSerialListener(serialConfig, handler, logger))
	}

	return listeners, nil
}

// ValidateSerialConfig validates serial configuration
func ValidateSerialConfig(config *SerialConfig) error {
	if config.Port == "" {
		return fmt.Errorf("serial port is required")
	}
	if !slices.Contains(validBaudRates, config.BaudRate) {
		return fmt.Errorf("invalid baud rate: %d", config.BaudRate)
	}
	if config.DataBits < 5 || config.DataBits > 8 {
		return fmt.Errorf("invalid data bits: %d", config.DataBits)
	}
	if config.StopBits != 1 && config.StopBits != 2 {
		return fmt.Errorf("invalid stop bits: %d", config.StopBits)
	}
	if !slices.Contains([]string{"none", "odd", "even", "mark", "space"}, config.Parity) {
		return fmt.Errorf("invalid parity: %s", config.Parity)
	}
	if config.InactivityTimeout <= 0 {
		return fmt.Errorf("inactivity timeout must be positive")
	}
	if config.ReadTimeout <= 0 || config.ReadTimeout > config.InactivityTimeout {
		return fmt.Errorf("read timeout must be positive and not exceed the inactivity timeout")
	}
	return nil
}
