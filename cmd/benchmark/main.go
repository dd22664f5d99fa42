// Benchmark tool for testing Kestrel against noisy bank-export data.
//
// Usage:
//
//	go run cmd/benchmark/main.go -url http://localhost:8080 -rows 5000
//
// This tool:
//  1. Seeds a workspace with payees, categories, and schedules
//  2. Generates import rows by mangling the payee names the way bank
//     exports do (prefixes, store numbers, phone numbers, upper-casing)
//  3. Sends each row to Kestrel for matching
//  4. Compares the suggested payee with the known true payee
//  5. Calculates auto-fill precision, coverage, and review rates
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// truthPayee is a seeded payee plus its category assignment.
type truthPayee struct {
	ID       string
	Name     string
	Category string
}

// benchRow is one generated import row with its ground truth.
type benchRow struct {
	Date     string
	Amount   float64
	RawPayee string
	TruthID  string // empty for rows with no matching payee
}

// seededPayees is the ledger the benchmark builds before matching.
var seededPayees = []truthPayee{
	{"p-netflix", "Netflix", "Streaming"},
	{"p-spotify", "Spotify", "Streaming"},
	{"p-walmart", "Walmart", "Groceries"},
	{"p-kroger", "Kroger", "Groceries"},
	{"p-trader-joes", "Trader Joe's", "Groceries"},
	{"p-starbucks", "Starbucks", "Dining"},
	{"p-chipotle", "Chipotle", "Dining"},
	{"p-shell", "Shell", "Gas"},
	{"p-exxon", "Exxon Mobil", "Gas"},
	{"p-amazon", "Amazon", "Shopping"},
	{"p-target", "Target", "Shopping"},
	{"p-comcast", "Comcast", "Utilities"},
	{"p-verizon", "Verizon Wireless", "Utilities"},
	{"p-cvs", "CVS Pharmacy", "Health"},
	{"p-planet-fitness", "Planet Fitness", "Health"},
}

// unknownPayees generate rows that should stay unmatched.
var unknownPayees = []string{
	"ZZYZX CANTINA",
	"QWERTY PLUMBING LLC",
	"LOCAL CRAFT FAIR",
	"RANDOM VENDOR 77",
}

var noisePrefixes = []string{
	"", "DEBIT ", "POS ", "CHECKCARD 0214 ", "ACH PYMT ", "PURCHASE ", "RECURRING ",
}

// Metrics tracks benchmark results.
type Metrics struct {
	CorrectAutoFill int64 // auto-filled with the true payee
	WrongAutoFill   int64 // auto-filled with a different payee (dangerous!)
	ReviewCorrect   int64 // needs-review, suggested payee is right
	ReviewOther     int64 // needs-review, suggestion wrong or absent
	MissedKnown     int64 // unmatched though a true payee existed
	CorrectUnmatch  int64 // unmatched, and no true payee existed
	FalseMatch      int64 // matched something for an unknown payee

	TotalProcessed int64
	TotalKnown     int64
	TotalUnknown   int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Kestrel base URL")
	workspaceID := flag.String("workspace", "benchmark-test", "Workspace ID for requests")
	rows := flag.Int("rows", 5000, "Number of rows to generate")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	unknownRate := flag.Float64("unknown", 0.15, "Fraction of rows with no matching payee (0.0-1.0)")
	seed := flag.Int64("seed", 42, "Random seed for reproducible runs")
	verbose := flag.Bool("verbose", false, "Print each row result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        KESTREL BENCHMARK - Noisy Payee Reconciliation         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nKestrel URL:  %s\n", *baseURL)
	fmt.Printf("Workspace:    %s\n", *workspaceID)
	fmt.Printf("Rows:         %d\n", *rows)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Unknown Rate: %.2f\n", *unknownRate)
	fmt.Printf("Seed:         %d\n", *seed)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Kestrel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Kestrel is running:")
		fmt.Println("  cd kestrel && go run cmd/kestrel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Kestrel is healthy")

	client := &http.Client{Timeout: 10 * time.Second}

	fmt.Println("\nSeeding workspace ledger...")
	if err := seedLedger(client, *baseURL, *workspaceID); err != nil {
		fmt.Printf("ERROR: Failed to seed ledger: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Seeded %d payees across categories\n", len(seededPayees))

	rng := rand.New(rand.NewSource(*seed))
	benchRows := generateRows(rng, *rows, *unknownRate)
	fmt.Printf("✓ Generated %d rows\n", len(benchRows))

	knownCount := 0
	for _, row := range benchRows {
		if row.TruthID != "" {
			knownCount++
		}
	}
	fmt.Printf("  - Known payees:   %d (%.2f%%)\n", knownCount, 100*float64(knownCount)/float64(len(benchRows)))
	fmt.Printf("  - Unknown payees: %d (%.2f%%)\n", len(benchRows)-knownCount, 100*float64(len(benchRows)-knownCount)/float64(len(benchRows)))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(benchRows, *baseURL, *workspaceID, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// seedLedger creates the categories and payees the matcher will score
// against.
func seedLedger(client *http.Client, baseURL, workspaceID string) error {
	categories := map[string]bool{}
	for _, p := range seededPayees {
		categories[p.Category] = true
	}
	for name := range categories {
		body := map[string]string{"id": "c-" + name, "name": name}
		if err := postJSON(client, baseURL, workspaceID, "/categories", body, nil); err != nil {
			return fmt.Errorf("category %s: %w", name, err)
		}
	}
	for _, p := range seededPayees {
		body := map[string]string{"id": p.ID, "name": p.Name}
		if err := postJSON(client, baseURL, workspaceID, "/payees", body, nil); err != nil {
			return fmt.Errorf("payee %s: %w", p.Name, err)
		}
	}
	return nil
}

// mangle turns a clean payee name into the kind of string banks export.
func mangle(rng *rand.Rand, name string) string {
	s := name
	if rng.Intn(100) < 80 {
		s = toUpper(s)
	}
	switch rng.Intn(5) {
	case 0:
		s = fmt.Sprintf("%s #%04d", s, rng.Intn(10000))
	case 1:
		s = fmt.Sprintf("%s STORE %d", s, rng.Intn(100))
	case 2:
		s = fmt.Sprintf("%s 866-%03d-%04d", s, rng.Intn(1000), rng.Intn(10000))
	case 3:
		s = fmt.Sprintf("%s %s %04d", s, []string{"WA", "TX", "NY", "CA"}[rng.Intn(4)], rng.Intn(10000))
	}
	return noisePrefixes[rng.Intn(len(noisePrefixes))] + s
}

func toUpper(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'a' && r <= 'z' {
			out[i] = r - 32
		}
	}
	return string(out)
}

func generateRows(rng *rand.Rand, count int, unknownRate float64) []benchRow {
	rows := make([]benchRow, 0, count)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		date := base.AddDate(0, 0, rng.Intn(180)).Format("01/02/2006")
		amount := -float64(rng.Intn(20000)+100) / 100.0

		if rng.Float64() < unknownRate {
			rows = append(rows, benchRow{
				Date:     date,
				Amount:   amount,
				RawPayee: mangle(rng, unknownPayees[rng.Intn(len(unknownPayees))]),
			})
			continue
		}

		truth := seededPayees[rng.Intn(len(seededPayees))]
		rows = append(rows, benchRow{
			Date:     date,
			Amount:   amount,
			RawPayee: mangle(rng, truth.Name),
			TruthID:  truth.ID,
		})
	}
	return rows
}

// matchResponse is the subset of the suggestion the benchmark scores.
type matchResponse struct {
	Disposition string `json:"disposition"`
	Payee       struct {
		Payee *struct {
			ID string `json:"id"`
		} `json:"payee"`
		Confidence string  `json:"confidence"`
		Score      float64 `json:"score"`
	} `json:"payee"`
}

func runBenchmark(rows []benchRow, baseURL, workspaceID string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan benchRow, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for row := range work {
				start := time.Now()
				result, err := matchRow(client, baseURL, workspaceID, row)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", row.RawPayee, err)
					}
					continue
				}

				if row.TruthID != "" {
					atomic.AddInt64(&metrics.TotalKnown, 1)
				} else {
					atomic.AddInt64(&metrics.TotalUnknown, 1)
				}

				score(metrics, row, result)

				if verbose {
					suggested := "-"
					if result.Payee.Payee != nil {
						suggested = result.Payee.Payee.ID
					}
					mark := "✓"
					if row.TruthID != suggested && row.TruthID != "" {
						mark = "✗"
					}
					fmt.Printf("%s %-42s | truth: %-16s | got: %-16s (%s, %.2f) | %s\n",
						mark, truncate(row.RawPayee, 42), row.TruthID, suggested,
						result.Payee.Confidence, result.Payee.Score, result.Disposition)
				}
			}
		}()
	}

	for _, row := range rows {
		work <- row
	}
	close(work)

	wg.Wait()
	return metrics
}

// score folds one result into the confusion tally.
func score(m *Metrics, row benchRow, result *matchResponse) {
	suggestedID := ""
	if result.Payee.Payee != nil {
		suggestedID = result.Payee.Payee.ID
	}
	correct := suggestedID != "" && suggestedID == row.TruthID

	switch result.Disposition {
	case "auto-filled":
		switch {
		case correct:
			atomic.AddInt64(&m.CorrectAutoFill, 1)
		case row.TruthID == "":
			atomic.AddInt64(&m.FalseMatch, 1)
		default:
			atomic.AddInt64(&m.WrongAutoFill, 1)
		}
	case "needs-review":
		switch {
		case correct:
			atomic.AddInt64(&m.ReviewCorrect, 1)
		case row.TruthID == "":
			atomic.AddInt64(&m.FalseMatch, 1)
		default:
			atomic.AddInt64(&m.ReviewOther, 1)
		}
	default: // unmatched
		if row.TruthID == "" {
			atomic.AddInt64(&m.CorrectUnmatch, 1)
		} else {
			atomic.AddInt64(&m.MissedKnown, 1)
		}
	}
}

func matchRow(client *http.Client, baseURL, workspaceID string, row benchRow) (*matchResponse, error) {
	req := map[string]any{
		"accountId": "bench-acct",
		"row": map[string]any{
			"date":   row.Date,
			"amount": row.Amount,
			"payee":  row.RawPayee,
		},
	}

	var result matchResponse
	if err := postJSON(client, baseURL, workspaceID, "/match", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func postJSON(client *http.Client, baseURL, workspaceID, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Workspace-ID", workspaceID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Known Payees:     %d\n", m.TotalKnown)
	fmt.Printf("   Unknown Payees:   %d\n", m.TotalUnknown)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 DISPOSITION BREAKDOWN\n")
	fmt.Printf("   Auto-filled correctly:   %8d\n", m.CorrectAutoFill)
	fmt.Printf("   Auto-filled WRONG payee: %8d  ⚠️\n", m.WrongAutoFill)
	fmt.Printf("   Review, correct guess:   %8d\n", m.ReviewCorrect)
	fmt.Printf("   Review, other guess:     %8d\n", m.ReviewOther)
	fmt.Printf("   Missed known payee:      %8d\n", m.MissedKnown)
	fmt.Printf("   Correctly unmatched:     %8d\n", m.CorrectUnmatch)
	fmt.Printf("   Matched unknown payee:   %8d\n", m.FalseMatch)

	autoFilled := m.CorrectAutoFill + m.WrongAutoFill
	precision := float64(0)
	if autoFilled > 0 {
		precision = float64(m.CorrectAutoFill) / float64(autoFilled)
	}

	coverage := float64(0)
	if m.TotalKnown > 0 {
		coverage = float64(m.CorrectAutoFill+m.ReviewCorrect) / float64(m.TotalKnown)
	}

	reviewRate := float64(0)
	if m.TotalProcessed > 0 {
		reviewRate = float64(m.ReviewCorrect+m.ReviewOther) / float64(m.TotalProcessed)
	}

	fmt.Printf("\n🎯 MATCHING METRICS\n")
	fmt.Printf("   Auto-fill Precision: %.4f  (of auto-fills, how many had the true payee)\n", precision)
	fmt.Printf("   Coverage:            %.4f  (of known payees, how many were found)\n", coverage)
	fmt.Printf("   Review Rate:         %.4f  (rows a person still has to look at)\n", reviewRate)

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		rps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f rows/sec\n", rps)
	}

	fmt.Printf("\n💡 INTERPRETATION\n")
	if precision >= 0.99 {
		fmt.Println("   ✅ Excellent precision - auto-fills are trustworthy")
	} else if precision >= 0.95 {
		fmt.Println("   ⚠️  Good precision - a few wrong auto-fills slip through")
	} else {
		fmt.Println("   ❌ Low precision - wrong auto-fills corrupt the ledger!")
	}

	if coverage >= 0.9 {
		fmt.Println("   ✅ Excellent coverage - most rows reconcile themselves")
	} else if coverage >= 0.7 {
		fmt.Println("   ⚠️  Moderate coverage - many rows need manual matching")
	} else {
		fmt.Println("   ❌ Poor coverage - the cleaner or matcher needs tuning")
	}

	fmt.Println()
}
