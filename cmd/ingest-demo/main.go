// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command ingest-demo runs a small gin API with the peekapi SDK wired in as
// request-tracking middleware, plus a Prometheus /metrics endpoint exposing
// the SDK's own buffer and flush gauges/counters. It's a runnable reference
// for how a host application assembles pkg/ingest and middleware/gin
// together, constructing the client explicitly with ingest.New rather than
// through internal/autoinit; it is not itself part of the SDK's public
// surface.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ginmiddleware "github.com/peekapi/sdk-go/middleware/gin"
	"github.com/peekapi/sdk-go/pkg/ingest"
)

func main() {
	apiKey := flag.String("api_key", os.Getenv("PEEKAPI_API_KEY"), "peekapi API key")
	endpoint := flag.String("endpoint", "", "Ingest endpoint override (defaults to the SDK's production endpoint)")
	httpAddr := flag.String("http_addr", ":8080", "HTTP listen address for the demo API")
	metricsAddr := flag.String("metrics_addr", ":9090", "HTTP listen address for Prometheus /metrics")
	flushInterval := flag.Duration("flush_interval", 15*time.Second, "Maximum time between flushes")
	batchSize := flag.Int("batch_size", 250, "Max events per flush")
	debug := flag.Bool("debug", false, "Enable SDK diagnostic logging")
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("api_key is required (set -api_key or PEEKAPI_API_KEY)")
	}

	opts := []ingest.Option{
		ingest.WithFlushInterval(*flushInterval),
		ingest.WithBatchSize(*batchSize),
		ingest.WithCollectQueryString(true),
		ingest.WithDebug(*debug),
		ingest.WithOnError(func(err error) {
			log.Printf("ingest error: %v", err)
		}),
	}
	if *endpoint != "" {
		opts = append(opts, ingest.WithEndpoint(*endpoint))
	}

	client, err := ingest.New(*apiKey, opts...)
	if err != nil {
		log.Fatalf("could not construct ingest client: %v", err)
	}
	client.InstallSignalHandlers()

	router := gin.Default()
	router.Use(ginmiddleware.New(client))
	router.GET("/widgets/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.GET("/boom", func(c *gin.Context) {
		panic("simulated handler panic")
	})

	apiServer := &http.Server{
		Addr:    *httpAddr,
		Handler: router,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    *metricsAddr,
		Handler: metricsMux,
	}

	go func() {
		log.Printf("demo API listening on %s", *httpAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server: %v", err)
		}
	}()
	go func() {
		log.Printf("metrics listening on %s", *metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("api server shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Printf("metrics server shutdown: %v", err)
	}

	// The client installed its own SIGINT/SIGTERM handler above, which races
	// this one to call ShutdownSync; Stop is idempotent so calling it again
	// here is a harmless no-op if that handler already ran.
	client.Shutdown()
	log.Println("stopped")
}
