// Command loadgen drives Zipfian-distributed GET traffic against a
// running colander proxy and exposes a small control server for tuning
// skew and pausing/resuming traffic live.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

func main() {
	var (
		proxyURL    = flag.String("proxy_url", "http://127.0.0.1:8080", "target proxy URL")
		numItems    = flag.Uint64("num_items", 100_000, "number of unique items in the dataset")
		concurrency = flag.Uint64("concurrency", 16, "number of concurrent request workers")
		rps         = flag.Uint64("rps", 0, "target requests per second, 0 = unlimited")
		alpha       = flag.Float64("alpha", 0.8, "initial Zipfian skew")
		controlAddr = flag.String("control_addr", "0.0.0.0:9091", "control server listen address")
	)
	flag.Parse()

	state := &loadgenState{
		numItems:    *numItems,
		proxyURL:    *proxyURL,
		rps:         *rps,
		concurrency: *concurrency,
	}
	state.alphaFP.Store(int64(*alpha * 1000))
	state.running.Store(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/control", state.handleControl)
	mux.HandleFunc("/status", state.handleStatus)

	log.Printf("loadgen starting: proxy=%s alpha=%.2f items=%d concurrency=%d rps=%d control=%s",
		*proxyURL, *alpha, *numItems, *concurrency, *rps, *controlAddr)

	go func() {
		log.Fatal(http.ListenAndServe(*controlAddr, mux))
	}()

	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 64,
		},
	}

	for i := uint64(0); i < *concurrency; i++ {
		go worker(state, client, i)
	}

	logThroughput(state)
}

// loadgenState is shared by every worker and the control/status handlers.
// alphaFP stores alpha * 1000 as a fixed-point integer so it can be read
// and updated lock-free from request-handling goroutines.
type loadgenState struct {
	alphaFP       atomic.Int64
	numItems      uint64
	running       atomic.Bool
	proxyURL      string
	rps           uint64
	concurrency   uint64
	totalRequests atomic.Uint64
}

func (s *loadgenState) alpha() float64 {
	return float64(s.alphaFP.Load()) / 1000.0
}

func (s *loadgenState) setAlpha(a float64) {
	if a < 0.01 {
		a = 0.01
	}
	if a > 3.0 {
		a = 3.0
	}
	s.alphaFP.Store(int64(a * 1000))
}

type controlRequest struct {
	Alpha   *float64 `json:"alpha"`
	Running *bool    `json:"running"`
}

type controlResponse struct {
	Alpha         float64 `json:"alpha"`
	Running       bool    `json:"running"`
	TotalRequests uint64  `json:"total_requests"`
}

func (s *loadgenState) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Alpha != nil {
		s.setAlpha(*req.Alpha)
		log.Printf("alpha updated to %.3f", s.alpha())
	}
	if req.Running != nil {
		s.running.Store(*req.Running)
		log.Printf("running updated to %v", *req.Running)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(controlResponse{
		Alpha:         s.alpha(),
		Running:       s.running.Load(),
		TotalRequests: s.totalRequests.Load(),
	})
}

type statusResponse struct {
	Alpha         float64 `json:"alpha"`
	Running       bool    `json:"running"`
	TotalRequests uint64  `json:"total_requests"`
	NumItems      uint64  `json:"num_items"`
	Concurrency   uint64  `json:"concurrency"`
	RPS           uint64  `json:"rps"`
}

func (s *loadgenState) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusResponse{
		Alpha:         s.alpha(),
		Running:       s.running.Load(),
		TotalRequests: s.totalRequests.Load(),
		NumItems:      s.numItems,
		Concurrency:   s.concurrency,
		RPS:           s.rps,
	})
}

// worker sends GET requests for Zipfian-distributed item IDs. Each
// worker owns its own *rand.Rand and *rand.Zipf (neither is safe for
// concurrent use), rebuilding the Zipf generator whenever the live alpha
// drifts from the one it was built with.
func worker(state *loadgenState, client *http.Client, id uint64) {
	localR := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
	builtAlpha := state.alpha()
	zipf := rand.NewZipf(localR, builtAlpha+1.0, 1.0, state.numItems-1)

	var delay time.Duration
	if state.rps > 0 {
		perWorker := state.rps / maxU64(state.concurrency, 1)
		if perWorker > 0 {
			delay = time.Duration(1_000_000_000 / perWorker)
		}
	}

	for {
		if !state.running.Load() {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		current := state.alpha()
		if diff := current - builtAlpha; diff > 0.001 || diff < -0.001 {
			builtAlpha = current
			zipf = rand.NewZipf(localR, builtAlpha+1.0, 1.0, state.numItems-1)
		}

		itemID := zipf.Uint64()
		url := fmt.Sprintf("%s/api/items/%d", state.proxyURL, itemID)

		resp, err := client.Get(url)
		if err != nil {
			if id == 0 {
				log.Printf("request failed: %v", err)
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		resp.Body.Close()
		state.totalRequests.Add(1)

		if delay > 0 {
			time.Sleep(delay)
		}
	}
}

func logThroughput(state *loadgenState) {
	ctx := context.Background()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var prev uint64
	for {
		select {
		case <-ticker.C:
			current := state.totalRequests.Load()
			delta := current - prev
			prev = current
			log.Printf("throughput: total=%d rps=%.0f alpha=%.2f", current, float64(delta)/5.0, state.alpha())
		case <-ctx.Done():
			return
		}
	}
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
