// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/learnato/forum/services/ai"
	"github.com/learnato/forum/services/api/routes"
	"github.com/learnato/forum/services/auth"
	"github.com/learnato/forum/services/forum"
	"github.com/learnato/forum/services/realtime"
)

// initTracer wires the OTLP gRPC exporter. Tracing is opt-in: without
// OTEL_EXPORTER_OTLP_ENDPOINT the service runs untraced.
func initTracer(ctx context.Context) (func(context.Context), error) {
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		return nil, nil
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("forum-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newStore selects the persistence backend from STORE_BACKEND:
// mongo, badger, or memory (the default).
func newStore(ctx context.Context) (forum.PostStore, func(), error) {
	switch backend := os.Getenv("STORE_BACKEND"); backend {
	case "mongo":
		uri := os.Getenv("MONGODB_URI")
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
		db := os.Getenv("MONGODB_DATABASE")
		if db == "" {
			db = "forum"
		}
		store, err := forum.NewMongoStore(ctx, uri, db)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using MongoDB post store", "database", db)
		return store, func() {
			if err := store.Close(context.Background()); err != nil {
				slog.Error("failed to close mongo store", "error", err)
			}
		}, nil
	case "badger":
		store, err := forum.NewBadgerStore(os.Getenv("BADGER_PATH"))
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using Badger post store", "path", os.Getenv("BADGER_PATH"))
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Error("failed to close badger store", "error", err)
			}
		}, nil
	case "", "memory":
		slog.Info("Using in-memory post store")
		return forum.NewMemoryStore(), func() {}, nil
	default:
		slog.Warn("Unknown STORE_BACKEND, using in-memory post store", "backend", backend)
		return forum.NewMemoryStore(), func() {}, nil
	}
}

// newProvider selects the AI backend from AI_BACKEND. Anything but
// "openai" leaves the gateway on its local fallbacks.
func newProvider() ai.Provider {
	if os.Getenv("AI_BACKEND") != "openai" {
		slog.Info("No AI provider configured, AI features use local fallbacks")
		return nil
	}
	provider, err := ai.NewOpenAIProvider()
	if err != nil {
		slog.Error("OpenAI provider unavailable, AI features use local fallbacks", "error", err)
		return nil
	}
	return provider
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanup, err := initTracer(ctx)
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	if cleanup != nil {
		defer cleanup(context.Background())
	}

	store, closeStore, err := newStore(ctx)
	if err != nil {
		log.Fatalf("failed to open post store: %v", err)
	}
	defer closeStore()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	svc := forum.NewService(store, hub)
	gateway := ai.NewGateway(newProvider(), store)

	var verifier auth.Verifier
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		verifier = auth.NewJWTVerifier(secret)
	} else {
		slog.Warn("JWT_SECRET not set, all requests are anonymous")
	}

	if os.Getenv("FORUM_ENV") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		router.Use(otelgin.Middleware("forum-service"))
	}
	routes.SetupRoutes(router, svc, gateway, hub, verifier)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		slog.Info("Forum service listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
