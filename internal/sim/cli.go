package sim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jfeo/artswipe/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Artswipe Swipe Simulator
========================

Drives concurrent simulated swipers against a running artswipe service
and verifies that every reported match is mutual.

Usage:
  go run cmd/artswipe-sim/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -swipers int
        Number of simulated users (default 10)
  -swipes int
        Choices each user submits (default 50)
  -bias float
        Probability a swipe is a like (default 0.7)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for simulation output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/artswipe-sim/main.go

  # A bigger crowd with mostly likes
  go run cmd/artswipe-sim/main.go -swipers 50 -swipes 100 -bias 0.9
`)
}
