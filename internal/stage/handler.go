package stage

import (
	"context"
	"log/slog"

	"riptide/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by stages that accept a per-run logger carrying
// item and lane context.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
