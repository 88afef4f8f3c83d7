// Command proxy runs the caching HTTP reverse proxy: it fronts an
// upstream origin, serves cache hits directly, coalesces concurrent
// misses, and exposes Prometheus metrics, a live WebSocket stats feed,
// and (optionally) a RESP2 port for poking the cache with redis-cli.
package main

import (
	"context"
	"flag"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kclaka/colander/cache"
	"github.com/kclaka/colander/internal/config"
	"github.com/kclaka/colander/internal/configwatch"
	"github.com/kclaka/colander/internal/metricsbus"
	"github.com/kclaka/colander/internal/proxy"
	"github.com/kclaka/colander/internal/resp"
	"github.com/kclaka/colander/metrics/prom"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config.toml")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		// zap failing to construct is unusual enough that a plain log.Fatal
		// is the right escape hatch — there is no logger to log it with.
		stdlog.Fatalf("zap.NewProduction: %v", err)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("loading config", zap.Error(err))
	}

	layer, err := cfg.BuildLayer()
	if err != nil {
		log.Fatal("building cache layer", zap.Error(err))
	}
	lp := cache.NewLayerPointer(layer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := configwatch.New(*configPath, lp, log, func(cfg config.Config) {
		log.Info("config applied", zap.String("policy", cfg.Cache.Policy))
	})
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	hub := metricsbus.NewHub(lp, log)
	go hub.Run(ctx.Done())

	reg := prometheus.NewRegistry()
	prom.New(reg, lp, "colander", "cache")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	metricsMux.HandleFunc("/ws/stats", hub.ServeWS)
	metricsMux.HandleFunc("/api/stats", hub.ServeStatsJSON)
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux}
	go func() {
		log.Info("metrics server listening", zap.String("addr", cfg.Server.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()

	if cfg.Resp.Enabled {
		respServer := resp.NewServer(cfg.Resp.Addr, lp, log)
		go func() {
			log.Info("resp server listening", zap.String("addr", cfg.Resp.Addr))
			if err := respServer.Run(ctx); err != nil {
				log.Warn("resp server stopped", zap.Error(err))
			}
		}()
	}

	handler := proxy.NewHandler(lp, cfg.Upstream.BaseURL, cfg.Upstream.Timeout, cfg.Cache.DefaultTTL, cfg.Cache.MaxBodyBytes, log)
	proxyServer := &http.Server{Addr: cfg.Server.ProxyAddr, Handler: handler}
	go func() {
		log.Info("proxy listening",
			zap.String("addr", cfg.Server.ProxyAddr),
			zap.String("upstream", cfg.Upstream.BaseURL),
			zap.String("policy", layer.PrimaryName()),
		)
		if err := proxyServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("proxy server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.Timeout)
	defer cancel()
	_ = proxyServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
}
