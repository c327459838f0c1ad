package main

import (
	"context"
	"log"

	"github.com/flowday-app/flowday/internal/app"
	"github.com/flowday-app/flowday/internal/config"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()
	a := app.NewApp(cfg)

	if err := a.InitAuth(ctx); err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	sess, err := a.EnsureGuestSession(ctx)
	if err != nil {
		log.Fatalf("%v", err)
	}

	a.Logger().Info(ctx, "auth core ready",
		"db", cfg.DatabasePath, "session_id", sess.ID, "mode", sess.Mode)
}
