// Command gpinterp serves Gaussian Process interpolation and text entropy
// analysis over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/gpinterp/internal/api"
	"github.com/banshee-data/gpinterp/internal/config"
	"github.com/banshee-data/gpinterp/internal/httputil"
	"github.com/banshee-data/gpinterp/internal/version"
)

var (
	listen          = flag.String("listen", ":8000", "Listen address")
	configFile      = flag.String("config", "", "Path to a JSON service config (optional)")
	shutdownTimeout = flag.Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
	check           = flag.Bool("check", false, "Probe /health on the -listen address and exit non-zero if unhealthy")
	showVersion     = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	if *check {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httputil.CheckHealth(ctx, httputil.NewStandardClient(nil), probeURL(*listen)); err != nil {
			fmt.Fprintf(os.Stderr, "unhealthy: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Printf("gpinterp %s starting on %s", version.Get(), *listen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := api.NewServer(cfg).HTTPServer(*listen)

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// loadConfig returns the defaults when path is empty.
func loadConfig(path string) (*config.ServiceConfig, error) {
	if path == "" {
		return config.EmptyServiceConfig(), nil
	}
	cfg, err := config.LoadServiceConfig(path)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded service config from %s", path)
	return cfg, nil
}

// probeURL turns a listen address into a URL reachable from the same host.
func probeURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}
