package main

import (
	"context"
	stdlog "log"

	"github.com/pc7stha/ShopVerse/internal/app"
	"github.com/pc7stha/ShopVerse/internal/config"
)

func main() {
	if err := run(); err != nil {
		stdlog.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()

	application, err := app.NewApplication(ctx, config.OrderService)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return application.Run()
}
