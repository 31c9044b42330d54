// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/auth"
	"github.com/starforge-games/liveops/internal/authority"
	"github.com/starforge-games/liveops/internal/cache"
	"github.com/starforge-games/liveops/internal/engine"
	"github.com/starforge-games/liveops/internal/handlers"
	"github.com/starforge-games/liveops/internal/state/postgres"
	"github.com/starforge-games/liveops/internal/workers"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init: %v", err)
	}

	ctx := context.Background()

	store, err := postgres.Connect(ctx)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	eng := engine.New(store, authority.NewHTTPGateway(), logger)

	// Audit mirror is optional; the service runs without Redis.
	if publisher, err := cache.Connect(ctx); err != nil {
		logger.Warnf("redis unavailable, audit mirror disabled: %v", err)
	} else {
		eng.SetAuditPublisher(publisher)
		defer publisher.Close()
	}

	janitor, err := workers.NewJanitor(eng, logger)
	if err != nil {
		log.Fatalf("janitor init: %v", err)
	}
	if err := janitor.Start(ctx); err != nil {
		log.Fatalf("janitor start: %v", err)
	}
	defer janitor.Stop()

	srv := handlers.NewServer(eng, logger)

	addr := ":8081"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
