// Command demobackend is a trivial origin server for exercising the
// proxy: it simulates 5-20ms of upstream latency and returns a small
// JSON item payload with a Cache-Control header the proxy can honor.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type item struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name"`
	Data      string `json:"data"`
	LatencyMs int    `json:"latency_ms"`
}

func main() {
	addr := flag.String("addr", "0.0.0.0:3000", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/items/", handleGetItem)
	mux.HandleFunc("/health", handleHealth)

	log.Printf("demo backend starting at %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

func handleGetItem(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/items/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	delay := 5 + rand.Intn(16) // 5..=20ms
	time.Sleep(time.Duration(delay) * time.Millisecond)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "max-age=30")
	_ = json.NewEncoder(w).Encode(item{
		ID:        id,
		Name:      fmt.Sprintf("Item %d", id),
		Data:      strings.Repeat("x", 256),
		LatencyMs: delay,
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}
