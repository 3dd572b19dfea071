package sim

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jfeo/artswipe/pkg/logger"
)

// Run executes the complete swipe simulation.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting swipe simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("swipers", config.NumSwipers),
		logger.Int("swipesPerUser", config.SwipesPerUser),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Run the swipers concurrently
	users := make([]string, config.NumSwipers)
	for i := range users {
		users[i] = uuid.NewString()
	}
	runSwipers(ctx, client, config, users, stats)

	// Step 3: Poll matches and verify symmetry
	if err := verifyMatchSymmetry(ctx, client, config, users, stats); err != nil {
		return fmt.Errorf("match verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if stats.SymmetryViolations > 0 {
		return fmt.Errorf("found %d match symmetry violations", stats.SymmetryViolations)
	}
	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	code, err := client.getJSON(ctx, config.BaseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if code != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", code)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// runSwipers drives one goroutine per simulated user. Each swiper pulls
// the next item and judges it with the configured like bias, so users
// overlap often enough for matches to form.
func runSwipers(ctx context.Context, client *HTTPClient, config *Config, users []string, stats *Stats) {
	var (
		attempted   int64
		recorded    int64
		unavailable int64
		failed      int64
	)

	var wg sync.WaitGroup
	for i, user := range users {
		wg.Add(1)
		go func(seed int64, user string) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed)) //nolint:gosec // simulated traffic

			for n := 0; n < config.SwipesPerUser; n++ {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&attempted, 1)
				switch swipeOnce(ctx, client, config, user, rng) {
				case "recorded":
					atomic.AddInt64(&recorded, 1)
				case "unavailable":
					atomic.AddInt64(&unavailable, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}(int64(i)+1, user)
	}
	wg.Wait()

	stats.SwipesAttempted = int(atomic.LoadInt64(&attempted))
	stats.SwipesRecorded = int(atomic.LoadInt64(&recorded))
	stats.SwipesUnavailable = int(atomic.LoadInt64(&unavailable))
	stats.SwipesFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "swiping completed",
		logger.Int("recorded", stats.SwipesRecorded),
		logger.Int("unavailable", stats.SwipesUnavailable),
		logger.Int("failed", stats.SwipesFailed))
}

// swipeOnce fetches one item for the user and submits a judgement.
func swipeOnce(ctx context.Context, client *HTTPClient, config *Config, user string, rng *rand.Rand) string {
	var items []item
	code, err := client.getJSON(ctx, config.BaseURL+"/culture?user="+user, &items)
	if err != nil {
		return "failed"
	}
	if code == http.StatusServiceUnavailable {
		return "unavailable"
	}
	if code != http.StatusOK || len(items) == 0 {
		return "failed"
	}

	decision := "false"
	if rng.Float64() < config.LikeBias {
		decision = "true"
	}
	chooseURL := fmt.Sprintf("%s/choose?user=%s&asset_id=%s&choice=%s",
		config.BaseURL, user, url.QueryEscape(items[0].AssetID), decision)
	code, err = client.getJSON(ctx, chooseURL, nil)
	if err != nil || code != http.StatusOK {
		return "failed"
	}
	return "recorded"
}

// verifyMatchSymmetry polls every user's matches and checks that each
// reported match is mutual.
func verifyMatchSymmetry(ctx context.Context, client *HTTPClient, config *Config, users []string, stats *Stats) error {
	logger.Get().Info(ctx, "verifying match symmetry")

	matches := make(map[string]map[string]bool, len(users))
	for _, user := range users {
		var res matchResult
		code, err := client.getJSON(ctx, config.BaseURL+"/match?user="+user, &res)
		if err != nil {
			return fmt.Errorf("match poll for %s failed: %w", user, err)
		}
		if code != http.StatusOK {
			return fmt.Errorf("match poll for %s failed with status: %d", user, code)
		}
		set := make(map[string]bool, len(res.All))
		for _, peer := range res.All {
			set[peer] = true
		}
		matches[user] = set
		stats.MatchesObserved += len(set)
	}

	for user, peers := range matches {
		for peer := range peers {
			if known, ok := matches[peer]; ok && !known[user] {
				stats.SymmetryViolations++
				logger.Get().Error(ctx, "asymmetric match",
					logger.String("user", user),
					logger.String("peer", peer))
			}
		}
	}

	logger.Get().Info(ctx, "match verification done",
		logger.Int("matches", stats.MatchesObserved),
		logger.Int("violations", stats.SymmetryViolations))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var swipesPerSecond float64
	if stats.Duration > 0 {
		swipesPerSecond = float64(stats.SwipesAttempted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("swipesAttempted", stats.SwipesAttempted),
		logger.Int("swipesRecorded", stats.SwipesRecorded),
		logger.Int("swipesUnavailable", stats.SwipesUnavailable),
		logger.Int("swipesFailed", stats.SwipesFailed),
		logger.Int("matchesObserved", stats.MatchesObserved),
		logger.Int("symmetryViolations", stats.SymmetryViolations),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("swipesPerSecond", swipesPerSecond))
}
