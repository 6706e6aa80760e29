// Package main provides a performance benchmarking tool for the sizeup CLI.
// It seeds a SQLite store with synthetic pull requests and evaluations, then
// measures report execution times for every stat type, running each test multiple
// times, treating the first successful run as cold and averaging the rest as warm,
// and generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - sizeup binary installed and available in PATH
//
// Usage: go run benchmark/main.go [pull-request-counts]
//
//	pull-request-counts: Comma-separated store sizes to benchmark (default 100,1000,10000)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/sizeup/core"
	"github.com/huangsam/sizeup/internal/iocache"
	"github.com/huangsam/sizeup/schema"
)

const benchmarkRepository = "lerebear/sizeup"

// BenchmarkResult holds the result of a benchmark run (in-process query average, cold CLI run and average of warm CLI runs).
type BenchmarkResult struct {
	PullRequests int
	StatType     schema.StatType
	QueryTime    string
	ColdTime     string
	WarmTime     string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Sizes     []int
	Timeout   time.Duration
	QueryRuns int
	CLIRuns   int
	StatTypes []schema.StatType
	WorkDir   string
}

func main() {
	sizes := []int{100, 1000, 10000}
	if len(os.Args) == 2 {
		parsed, err := parseSizes(os.Args[1])
		if err != nil {
			fmt.Printf("Usage: %s [pull-request-counts]\n%v\n", os.Args[0], err)
			os.Exit(1)
		}
		sizes = parsed
	} else if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [pull-request-counts]\n", os.Args[0])
		os.Exit(1)
	}

	workDir, err := os.MkdirTemp("", "sizeup-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	config := BenchmarkConfig{
		Sizes:     sizes,
		Timeout:   2 * time.Minute,
		QueryRuns: 3,
		CLIRuns:   4,
		StatTypes: schema.AllStatTypes,
		WorkDir:   workDir,
	}

	if _, err := exec.LookPath("sizeup"); err != nil {
		fmt.Printf("Prerequisites check failed: sizeup binary not found in PATH\n")
		os.Exit(1)
	}

	results, err := runBenchmarks(context.Background(), config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// parseSizes reads a comma-separated list of positive store sizes.
func parseSizes(arg string) ([]int, error) {
	var sizes []int
	for part := range strings.SplitSeq(arg, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid pull request count %q", part)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

// runBenchmarks seeds one store per size and benchmarks every stat type against it.
func runBenchmarks(ctx context.Context, config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sizes, %v timeout, query: %d runs, cli: %d runs\n",
		len(config.Sizes), config.Timeout, config.QueryRuns, config.CLIRuns)

	for _, size := range config.Sizes {
		dbPath := filepath.Join(config.WorkDir, fmt.Sprintf("sizeup_%d.db", size))
		fmt.Printf("Seeding %d pull requests into %s\n", size, dbPath)
		store, err := iocache.OpenStore(ctx, schema.SQLiteBackend, dbPath)
		if err != nil {
			return nil, err
		}
		dr, err := seedStore(ctx, store, size)
		if err != nil {
			_ = store.Close()
			return nil, err
		}

		for _, statType := range config.StatTypes {
			fmt.Printf("Benchmarking %s with %d pull requests\n", statType, size)
			queryAvg := timeQueries(ctx, store, statType, dr, config.QueryRuns)
			cold, warm := timeCLI(config, dbPath, statType, dr)
			fmt.Printf("  Query average: %s, Cold time: %s, Warm average: %s\n", queryAvg, cold, warm)
			results = append(results, BenchmarkResult{
				PullRequests: size,
				StatType:     statType,
				QueryTime:    queryAvg,
				ColdTime:     cold,
				WarmTime:     warm,
			})
		}
		_ = store.Close()
	}

	return results, nil
}

// seedStore writes size synthetic pull requests with two evaluations each and
// returns a window that covers all of them.
func seedStore(ctx context.Context, store *iocache.SQLStore, size int) (schema.DateRange, error) {
	rng := rand.New(rand.NewPCG(uint64(size), 42))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for n := 1; n <= size; n++ {
		created := base.Add(time.Duration(rng.IntN(300*24)) * time.Hour)
		ready := created.Add(time.Duration(rng.IntN(48)) * time.Hour)
		approved := ready.Add(time.Duration(1+rng.IntN(96)) * time.Hour)
		merged := approved.Add(time.Duration(1+rng.IntN(24)) * time.Hour)
		record := schema.PullRequestRecord{
			Repository:                      benchmarkRepository,
			Number:                          n,
			CreatedAt:                       created,
			ReadyForReviewAt:                ready,
			ApprovedAt:                      &approved,
			MergedAt:                        &merged,
			ClosedAt:                        &merged,
			NumCommits:                      1 + rng.IntN(20),
			NumIssueComments:                rng.IntN(10),
			NumReviews:                      rng.IntN(6),
			NumReviewComments:               rng.IntN(30),
			NumUnacknowledgedReviewRequests: rng.IntN(3),
		}
		if err := store.UpsertPullRequest(ctx, record); err != nil {
			return schema.DateRange{}, err
		}

		optedIn := rng.IntN(2) == 0
		for i := range 2 {
			evaluation := schema.EvaluationRecord{
				Repository:                  benchmarkRepository,
				PullRequestNumber:           n,
				PullRequestAuthorHasOptedIn: optedIn,
				Score:                       float64(rng.IntN(500)),
				EvaluatedAt:                 created.Add(time.Duration(i+1) * time.Hour),
			}
			if err := store.AppendEvaluation(ctx, evaluation); err != nil {
				return schema.DateRange{}, err
			}
		}
	}

	end := base.AddDate(1, 0, 0)
	return schema.DateRange{Start: base, End: &end}, nil
}

// timeQueries runs the cohort queries of a stat type in-process and returns their average time.
func timeQueries(ctx context.Context, store *iocache.SQLStore, statType schema.StatType, dr schema.DateRange, numRuns int) string {
	var sum float64
	for range numRuns {
		start := time.Now()
		if _, err := core.CollectReportData(ctx, store, statType, benchmarkRepository, dr); err != nil {
			return "FAILED"
		}
		sum += time.Since(start).Seconds()
	}
	return fmt.Sprintf("%.3fs", sum/float64(numRuns))
}

// timeCLI runs the report command multiple times and returns the cold time and warm average.
func timeCLI(config BenchmarkConfig, dbPath string, statType schema.StatType, dr schema.DateRange) (coldTime, warmAvg string) {
	args := []string{
		"report", benchmarkRepository,
		"--stat-type", string(statType),
		"--renderer", "table",
		"--start-date", dr.Start.Format(time.DateOnly),
		"--end-date", dr.End.Format(time.DateOnly),
		"--database-path", dbPath,
		"--color", "no",
	}

	var times []float64
	for run := 1; run <= config.CLIRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "sizeup", args...).CombinedOutput()
		cancel()
		if err == nil && isSuccess(output, statType) {
			times = append(times, time.Since(start).Seconds())
		}
	}

	coldTime, warmAvg = "TIMEOUT", "TIMEOUT"
	if len(times) > 0 {
		coldTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}
	return coldTime, warmAvg
}

// isSuccess checks if command output contains the routine heading
func isSuccess(output []byte, statType schema.StatType) bool {
	return strings.Contains(string(output), fmt.Sprintf("%s for %s", statType, benchmarkRepository))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/sizeup_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"pull_requests", "stat_type", "query_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		row := []string{strconv.Itoa(result.PullRequests), string(result.StatType), result.QueryTime, result.ColdTime, result.WarmTime}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, statType := range schema.AllStatTypes {
		fmt.Printf("%s:\n", statType)
		for _, result := range results {
			if result.StatType == statType {
				fmt.Printf("  %-8d: Query: %s, Cold: %s, Warm: %s\n", result.PullRequests, result.QueryTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
