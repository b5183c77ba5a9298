package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	targetURL   string
	concurrency int
	duration    time.Duration
	wallets     int
	refSpace    int
	linesPerReq int
)

var (
	totalRequests uint64
	created201    uint64
	rejected4xx   uint64
	failed5xx     uint64
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.IntVar(&wallets, "wallets", 1000, "Number of seeded wallets (ids 1..N)")
	flag.IntVar(&refSpace, "refs", 5000, "Size of the reference pool; smaller means more duplicate lines")
	flag.IntVar(&linesPerReq, "lines", 20, "Statement lines per webhook")
}

func main() {
	flag.Parse()
	log.Printf("Starting benchmark | workers: %d | duration: %s | refs: %d | lines: %d",
		concurrency, duration, refSpace, linesPerReq)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}
	wg.Wait()
	printResults(time.Since(start))
}

// worker posts statements drawn from a shared reference pool so concurrent
// webhooks overlap and the ledger has to skip duplicates.
func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		bank, payload := statement()
		req, _ := http.NewRequest(http.MethodPost, targetURL+"/api/v1/pay/webhook", strings.NewReader(payload))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("X-Wallet-ID", strconv.Itoa(rand.Intn(wallets)+1))
		req.Header.Set("X-Bank", bank)

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}
		atomic.AddUint64(&totalRequests, 1)
		switch {
		case resp.StatusCode == http.StatusCreated:
			atomic.AddUint64(&created201, 1)
		case resp.StatusCode >= 500:
			atomic.AddUint64(&failed5xx, 1)
		case resp.StatusCode >= 400:
			atomic.AddUint64(&rejected4xx, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func statement() (string, string) {
	date := time.Now().Format("20060102")
	var b strings.Builder
	if rand.Intn(2) == 0 {
		for i := 0; i < linesPerReq; i++ {
			fmt.Fprintf(&b, "%d,%02d//BENCH%d//%s\n", rand.Intn(1000), rand.Intn(100), rand.Intn(refSpace), date)
		}
		return "ACME", b.String()
	}
	for i := 0; i < linesPerReq; i++ {
		fmt.Fprintf(&b, "%s%d,%02d#BENCH%d#note/bench\n", date, rand.Intn(1000), rand.Intn(100), rand.Intn(refSpace))
	}
	return "FOODICS", b.String()
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	results := map[string]interface{}{
		"duration_sec":   d.Seconds(),
		"total_requests": total,
		"throughput_rps": float64(total) / d.Seconds(),
		"created":        atomic.LoadUint64(&created201),
		"rejected_4xx":   atomic.LoadUint64(&rejected4xx),
		"failed_5xx":     atomic.LoadUint64(&failed5xx),
		"errors":         atomic.LoadUint64(&failOther),
		"reference_pool": refSpace,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	file, err := os.Create("results_webhooks.json")
	if err != nil {
		log.Printf("could not save results: %v", err)
		return
	}
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
