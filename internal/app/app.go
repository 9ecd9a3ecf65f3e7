package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Application is one service process: a container of shared resources and the
// runners (HTTP server, Kafka consumer) built from it. The runners share a
// context that is cancelled on SIGINT or SIGTERM.
type Application struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container *Container
	runners   []Runner
}

// NewApplication builds the container and the runners for serviceName. Nothing
// is started until Run.
func NewApplication(ctx context.Context, serviceName string) (*Application, error) {
	appCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	app := &Application{
		ctx:    appCtx,
		cancel: cancel,
	}

	container, err := NewContainer(app.ctx, serviceName)
	if err != nil {
		cancel()
		return nil, err
	}
	app.container = container

	runners, err := buildComponents(container)
	if err != nil {
		container.Shutdown(context.Background())
		cancel()
		return nil, err
	}
	app.runners = runners

	app.container.Logger().Info("Application initialized successfully", zap.Int("components", len(runners)))
	return app, nil
}

// Run starts every runner in an errgroup and blocks until they have all
// returned. A signal, or the first runner to fail, cancels the others; the
// first error is returned.
func (app *Application) Run() error {
	g, ctx := errgroup.WithContext(app.ctx)
	for _, r := range app.runners {
		g.Go(func() error { return r.Run(ctx) })
	}
	return g.Wait()
}

// Shutdown cancels the runners' context and then closes the container's
// publisher, dead-letter writers and telemetry exporters. Call it after Run
// has returned.
func (app *Application) Shutdown() {
	if app.container != nil {
		app.container.Logger().Info("Starting application shutdown...")
	}

	if app.cancel != nil {
		app.cancel()
	}

	if app.container != nil {
		app.container.Shutdown(context.Background())
	}
}
