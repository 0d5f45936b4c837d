package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/ignite/adpilot/internal/api"
	"github.com/ignite/adpilot/internal/audit"
	"github.com/ignite/adpilot/internal/config"
	"github.com/ignite/adpilot/internal/gads"
	"github.com/ignite/adpilot/internal/optimizer"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// The ads API client is constructed exactly once and injected into
	// everything that talks to the platform.
	adsClient := gads.NewClient(gads.Config{
		BaseURL:         cfg.GoogleAds.BaseURL,
		APIVersion:      cfg.GoogleAds.APIVersion,
		DeveloperToken:  cfg.GoogleAds.DeveloperToken,
		ClientID:        cfg.GoogleAds.ClientID,
		ClientSecret:    cfg.GoogleAds.ClientSecret,
		RefreshToken:    cfg.GoogleAds.RefreshToken,
		LoginCustomerID: cfg.GoogleAds.LoginCustomerID,
		Timeout:         cfg.GoogleAds.Timeout(),
		MaxRetries:      cfg.GoogleAds.MaxRetries,
		PartialFailure:  cfg.GoogleAds.PartialFailure,
	})

	engine := optimizer.NewEngine(adsClient, adsClient, optimizer.EngineConfig{
		CustomerID:     cfg.GoogleAds.CustomerID,
		ValidateOnly:   cfg.Optimizer.ValidateOnly,
		AllowedCallers: cfg.Optimizer.AllowedCallers,
		LookbackDays:   cfg.Optimizer.LookbackDays,
	})
	if cfg.Optimizer.ValidateOnly {
		log.Println("[server] running in validate-only mode, mutations are never submitted")
	}

	var store *audit.Store
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		store = audit.NewStore(db)
		if err := store.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to migrate audit store: %v", err)
		}
		log.Println("[server] audit store enabled")
	}

	var archiver *audit.Archiver
	if cfg.Archive.Enabled && cfg.Archive.S3Bucket != "" {
		archiver, err = audit.NewArchiver(context.Background(), cfg.Archive.S3Bucket, cfg.Archive.AWSRegion, cfg.Archive.AWSProfile)
		if err != nil {
			log.Fatalf("Failed to initialize report archiver: %v", err)
		}
		log.Printf("[server] report archival enabled (s3://%s)", cfg.Archive.S3Bucket)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to redis at %s: %v", cfg.Redis.Addr, err)
		}
		log.Printf("[server] apply-mode locking enabled (redis %s)", cfg.Redis.Addr)
	}

	handlers := api.NewHandlers(engine, store, archiver, redisClient, cfg.GoogleAds.CustomerID, cfg.Optimizer.LockTTL())
	server := api.NewServer(handlers)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Printf("[server] listening on %s", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Printf("[server] server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[server] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
}
