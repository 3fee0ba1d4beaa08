package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
	"harborline/breakwater/pkg/cli"
)

var benchFlags struct {
	target      string
	duration    time.Duration
	rate        int
	concurrency int
	header      string
	key         string
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load test a running gateway",
	Long: `Fire paced HTTP traffic at a running gateway and report how it
admits, rejects, and delays the load.

Metrics Collected:
  - Admitted / rate-limited / failed request counts
  - Latency percentiles (p50, p95, p99, max)
  - Retry-After hints observed on 429 responses

Examples:
  # Basic load test
  breakwater bench --target http://localhost:8080

  # Push past the limit
  breakwater bench --duration 60s --rate 200 --concurrency 10

  # Exercise header-based client keys
  breakwater bench --header X-API-Key --key bench-client`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringVar(&benchFlags.target, "target", "http://localhost:8080", "gateway URL")
	benchCmd.Flags().DurationVar(&benchFlags.duration, "duration", 30*time.Second, "test duration")
	benchCmd.Flags().IntVar(&benchFlags.rate, "rate", 50, "requests per second")
	benchCmd.Flags().IntVar(&benchFlags.concurrency, "concurrency", 4, "concurrent clients")
	benchCmd.Flags().StringVar(&benchFlags.header, "header", "", "client key header to send")
	benchCmd.Flags().StringVar(&benchFlags.key, "key", "bench", "client key value (with --header)")
}

type benchResults struct {
	mu        sync.Mutex
	latencies []time.Duration

	sent       int64
	admitted   int64
	limited    int64
	failed     int64
	retryAfter int64 // max Retry-After seconds observed

	duration time.Duration
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchFlags.rate <= 0 {
		return fmt.Errorf("rate must be positive, got %d", benchFlags.rate)
	}
	if benchFlags.concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", benchFlags.concurrency)
	}

	fmt.Println("Breakwater Bench")
	fmt.Println("================")
	fmt.Printf("Target: %s\n", benchFlags.target)
	fmt.Printf("Duration: %s\n", benchFlags.duration)
	fmt.Printf("Rate: %d req/s\n", benchFlags.rate)
	fmt.Printf("Concurrency: %d\n", benchFlags.concurrency)
	fmt.Println()
	fmt.Println("Running...")
	fmt.Println()

	results := fireLoad(cmd.Context())
	displayResults(results)
	return nil
}

func fireLoad(parent context.Context) *benchResults {
	results := &benchResults{}
	totalRequests := int64(benchFlags.duration.Seconds()) * int64(benchFlags.rate)

	ctx, cancel := context.WithTimeout(parent, benchFlags.duration)
	defer cancel()

	progress := cli.NewProgressReporter(nil)
	progress.Start(totalRequests)

	// A shared limiter paces all workers at the requested rate. Burst of
	// one keeps the arrival process smooth rather than front-loaded.
	limiter := rate.NewLimiter(rate.Limit(benchFlags.rate), 1)

	client := &http.Client{Timeout: 10 * time.Second}

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < benchFlags.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				fireRequest(ctx, client, results)
				progress.Update(atomic.LoadInt64(&results.sent))
			}
		}()
	}
	wg.Wait()
	progress.Finish()

	results.duration = time.Since(start)
	return results
}

func fireRequest(ctx context.Context, client *http.Client, results *benchResults) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, benchFlags.target, nil)
	if err != nil {
		atomic.AddInt64(&results.sent, 1)
		atomic.AddInt64(&results.failed, 1)
		return
	}
	if benchFlags.header != "" {
		req.Header.Set(benchFlags.header, benchFlags.key)
	}

	reqStart := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(reqStart)

	atomic.AddInt64(&results.sent, 1)
	if err != nil {
		atomic.AddInt64(&results.failed, 1)
		return
	}
	resp.Body.Close()

	results.mu.Lock()
	results.latencies = append(results.latencies, latency)
	results.mu.Unlock()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		atomic.AddInt64(&results.limited, 1)
		if secs, err := strconv.ParseInt(resp.Header.Get("Retry-After"), 10, 64); err == nil {
			recordMaxRetryAfter(&results.retryAfter, secs)
		}
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		atomic.AddInt64(&results.admitted, 1)
	default:
		atomic.AddInt64(&results.failed, 1)
	}
}

// recordMaxRetryAfter keeps the largest observed Retry-After hint.
func recordMaxRetryAfter(slot *int64, secs int64) {
	for {
		cur := atomic.LoadInt64(slot)
		if secs <= cur || atomic.CompareAndSwapInt64(slot, cur, secs) {
			return
		}
	}
}

func displayResults(results *benchResults) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Println("--------")
	fmt.Printf("Requests:     %d total, %d admitted, %d rate-limited, %d failed\n",
		results.sent, results.admitted, results.limited, results.failed)
	fmt.Printf("Duration:     %.1fs\n", results.duration.Seconds())

	if results.sent > 0 && results.duration > 0 {
		throughput := float64(results.sent) / results.duration.Seconds()
		fmt.Printf("Throughput:   %.2f req/s\n", throughput)
	}

	if results.limited > 0 {
		limitRate := float64(results.limited) / float64(results.sent) * 100
		fmt.Println()
		fmt.Printf("Rate limiting:\n")
		fmt.Printf("  429 responses:   %d (%.0f%%)\n", results.limited, limitRate)
		fmt.Printf("  Max Retry-After: %ds\n", results.retryAfter)
	}

	if len(results.latencies) > 0 {
		min, mean, median, p95, p99, max := calculatePercentiles(results.latencies)

		fmt.Println()
		fmt.Println("Latency:")
		fmt.Printf("  Min:     %.1fms\n", float64(min.Microseconds())/1000)
		fmt.Printf("  Mean:    %.1fms\n", float64(mean.Microseconds())/1000)
		fmt.Printf("  Median:  %.1fms\n", float64(median.Microseconds())/1000)
		fmt.Printf("  p95:     %.1fms\n", float64(p95.Microseconds())/1000)
		fmt.Printf("  p99:     %.1fms\n", float64(p99.Microseconds())/1000)
		fmt.Printf("  Max:     %.1fms\n", float64(max.Microseconds())/1000)
	}
}

func calculatePercentiles(latencies []time.Duration) (min, mean, median, p95, p99, max time.Duration) {
	if len(latencies) == 0 {
		return
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	min = sorted[0]
	max = sorted[len(sorted)-1]

	var sum time.Duration
	for _, lat := range sorted {
		sum += lat
	}
	mean = sum / time.Duration(len(sorted))

	median = sorted[len(sorted)/2]
	p95 = sorted[percentileIndex(len(sorted), 0.95)]
	p99 = sorted[percentileIndex(len(sorted), 0.99)]
	return
}

func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
