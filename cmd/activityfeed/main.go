// Command activityfeed follows the product activity log in a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/config"
	"github.com/example/inventory-backend/internal/feed"
	"github.com/example/inventory-backend/internal/firebase"
	"github.com/example/inventory-backend/internal/logger"
)

const clearScreen = "\033[H\033[2J"

func main() {
	noClear := flag.Bool("no-clear", false, "append views instead of redrawing the screen")
	flag.Parse()

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	if err := appConfig.RequireFirebase(); err != nil {
		log.Fatalf("CRITICAL_ERROR: %v", err)
	}

	zapLogger, err := logger.New(appConfig.AppEnv)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fb, err := firebase.Init(ctx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer fb.Close()

	client := feed.NewClient(
		feed.NewFirestoreSource(fb.Firestore, appConfig.ProductLogCollection, zapLogger),
		appConfig.FeedLimit, zapLogger)

	failed := make(chan struct{})
	sub := client.Subscribe(ctx, func(v feed.View) {
		if !*noClear {
			fmt.Fprint(os.Stdout, clearScreen)
		}
		if err := feed.Render(os.Stdout, v, time.Now()); err != nil {
			zapLogger.Warn("Failed to render activity feed", zap.Error(err))
		}
		if v.State == feed.StateError {
			close(failed)
		}
	})

	select {
	case <-ctx.Done():
	case <-failed:
	}
	sub.Cancel()
	<-sub.Done()
}
