// Command migrate applies or inspects the database schema.
//
//	migrate [up|down|status]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/config"
	"github.com/example/inventory-backend/internal/db"
	"github.com/example/inventory-backend/internal/logger"
	"github.com/example/inventory-backend/migrations"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|status]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	if err := appConfig.RequireDatabase(); err != nil {
		log.Fatalf("CRITICAL_ERROR: %v", err)
	}

	zapLogger, err := logger.New(appConfig.AppEnv)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	migrator, err := db.NewMigrator(appConfig.DatabaseURL, migrations.FS, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open migration provider", zap.Error(err))
	}
	defer migrator.Close()

	switch command {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = migrator.Status(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		zapLogger.Error("Migration command failed", zap.String("command", command), zap.Error(err))
		os.Exit(1)
	}
}
