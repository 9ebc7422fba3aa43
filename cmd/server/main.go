package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/npezzotti/go-estately/internal/api"
	"github.com/npezzotti/go-estately/internal/config"
	"github.com/npezzotti/go-estately/internal/database"
	"github.com/npezzotti/go-estately/internal/realtime"
	"github.com/npezzotti/go-estately/internal/stats"
)

const defaultSigningKey = "dGhpcy1pcy1hLWRldi1vbmx5LXNpZ25pbmcta2V5LTEyMzQ="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	// missing .env is fine, flags and real env still apply
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("ESTATELY_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", envOr("ESTATELY_DSN", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&signingKey, "signing-key", envOr("ESTATELY_SIGNING_KEY", defaultSigningKey), "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		if origins := os.Getenv("ESTATELY_ALLOWED_ORIGINS"); origins != "" {
			allowedOrigins.Set(origins)
		}
	}

	logger := log.New(os.Stderr, "[estately] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgEstatelyRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("migrate:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	dispatcher, err := realtime.NewDispatcher(logger, dbConn, statsUpdater)
	if err != nil {
		logger.Fatal("new dispatcher:", err)
	}

	srv := api.NewEstatelyApp(mux, logger, dispatcher, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go dispatcher.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down dispatcher...")
	if err := dispatcher.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("dispatcher shutdown:", err)
	}

	logger.Println("shutdown complete")
}
