package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jfeo/artswipe/internal/sim"
)

// Default configuration constants.
const (
	defaultSwipers    = 10
	defaultSwipes     = 50
	defaultLikeBias   = 0.7
	defaultTimeout    = 30 * time.Second
	defaultSimTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Base URL of the service")
		swipers  = flag.Int("swipers", defaultSwipers, "Number of simulated users")
		swipes   = flag.Int("swipes", defaultSwipes, "Choices each user submits")
		likeBias = flag.Float64("bias", defaultLikeBias, "Probability a swipe is a like")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile  = flag.String("log", "", "Log file for simulation output (default: sim_log_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sim.ShowHelp()
		return
	}

	if err := sim.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSimTimeout)
	defer cancel()

	config := &sim.Config{
		BaseURL:       *baseURL,
		NumSwipers:    *swipers,
		SwipesPerUser: *swipes,
		Timeout:       *timeout,
		LikeBias:      *likeBias,
		LogFile:       *logFile,
		Verbose:       *verbose,
	}

	if err := sim.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
