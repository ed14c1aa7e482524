package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/sitepulse/client"
	"github.com/use-agent/sitepulse/config"
	"github.com/use-agent/sitepulse/models"
)

var (
	backendURL = flag.String("backend", "http://localhost:4000", "sitepulse backend base URL")
	runs       = flag.Int("runs", 3, "number of runs per URL for averaging")
	timeout    = flag.Duration("timeout", 30*time.Second, "per-request timeout")
	output     = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Targets covering a few site types.
var targets = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"News", "https://www.bbc.com/news"},
}

type runResult struct {
	Run         int    `json:"run"`
	LatencyMs   int64  `json:"latency_ms"`
	HTMLBytes   int    `json:"html_bytes"`
	MarkdownLen int    `json:"markdown_len"`
	HasTitle    bool   `json:"has_title"`
	Language    string `json:"language,omitempty"`
	Degraded    bool   `json:"degraded"`
	Success     bool   `json:"success"`
	Code        string `json:"code,omitempty"`
	Error       string `json:"error,omitempty"`
}

type urlResult struct {
	URL          string      `json:"url"`
	Label        string      `json:"label"`
	Runs         []runResult `json:"runs"`
	AvgLatencyMs float64     `json:"avg_latency_ms"`
	AvgMarkdown  float64     `json:"avg_markdown_len"`
	Successes    int         `json:"successes"`
}

type report struct {
	Timestamp  string      `json:"timestamp"`
	BackendURL string      `json:"backend_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	cfg := config.ClientConfig{
		BaseURL:      *backendURL,
		Timeout:      *timeout,
		MaxAttempts:  1,
		ProbeTimeout: 10 * time.Second,
		ProbeURL:     "https://example.com",
	}

	fmt.Println("=== sitepulse benchmark ===")
	fmt.Printf("Backend:   %s\n", cfg.BaseURL)
	fmt.Printf("Runs/URL:  %d\n\n", *runs)

	ctx := context.Background()
	if status := client.NewProber(cfg).Check(ctx); status != models.StatusOnline {
		fmt.Fprintf(os.Stderr, "Error: backend at %s is %s\n", cfg.BaseURL, status)
		os.Exit(1)
	}

	// No session: benchmark runs must not overwrite the saved website.
	cl := client.New(cfg, nil, nil)
	rep := report{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		BackendURL: cfg.BaseURL,
		RunsPerURL: *runs,
	}

	for _, t := range targets {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}
		for i := 1; i <= *runs; i++ {
			rr := runOnce(ctx, cl, t.URL, i)
			if rr.Success {
				fmt.Printf("  Run %d/%d  OK  %dms\n", i, *runs, rr.LatencyMs)
			} else {
				fmt.Printf("  Run %d/%d  FAILED  %s\n", i, *runs, rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}
		average(&ur)
		rep.Results = append(rep.Results, ur)
	}

	fmt.Println()
	printTable(rep.Results)

	data, err := json.MarshalIndent(rep, "", "  ")
	if err == nil {
		err = os.WriteFile(*output, data, 0o644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func runOnce(ctx context.Context, cl *client.Client, url string, run int) runResult {
	rr := runResult{Run: run}
	start := time.Now()
	outcome, err := cl.Scrape(ctx, url)
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Code = models.CodeOf(err)
		rr.Error = models.UserMessage(err)
		return rr
	}

	res := outcome.Result()
	rr.Success = true
	rr.Degraded = outcome.Degraded()
	rr.HTMLBytes = len(res.HTML)
	rr.MarkdownLen = len(res.Markdown)
	rr.HasTitle = res.Title != ""
	rr.Language = res.Language
	return rr
}

func average(ur *urlResult) {
	var latency, md float64
	for _, r := range ur.Runs {
		if !r.Success {
			continue
		}
		ur.Successes++
		latency += float64(r.LatencyMs)
		md += float64(r.MarkdownLen)
	}
	if ur.Successes > 0 {
		ur.AvgLatencyMs = latency / float64(ur.Successes)
		ur.AvgMarkdown = md / float64(ur.Successes)
	}
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tMarkdown Len\tOK\n")
	for _, r := range results {
		if r.Successes == 0 {
			fmt.Fprintf(w, "%s\tFAILED\t-\t0/%d\n", truncateURL(r.URL, 40), len(r.Runs))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%d\t%d/%d\n",
			truncateURL(r.URL, 40),
			int64(r.AvgLatencyMs),
			int(r.AvgMarkdown),
			r.Successes, len(r.Runs),
		)
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}
