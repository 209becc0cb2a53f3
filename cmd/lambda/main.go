// Package main runs the digest notifier as an AWS Lambda function triggered
// on a schedule.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/Adda-Baaj/taja-digest/internal/config"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/internal/notifier"
)

// Response is returned to the scheduler.
type Response struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	EventID string `json:"event_id"`
}

type handler struct {
	cfg *config.Config
	log *logger.ZapLogger
}

// Handle runs one digest cycle per scheduled event. The notifier is wired per
// invocation so the digest date follows the invocation day.
func (h *handler) Handle(ctx context.Context, evt events.CloudWatchEvent) (Response, error) {
	h.log.InfoObj("starting handler", "lambda_start", map[string]any{
		"event_id": evt.ID,
		"source":   evt.Source,
	})
	defer func() { _ = h.log.Sync() }()

	if h.cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Run.Timeout)
		defer cancel()
	}

	n, cleanup, err := notifier.Bootstrap(ctx, h.cfg, h.log)
	if err != nil {
		return Response{}, err
	}
	defer cleanup()

	out, err := n.Run(ctx)
	if err != nil {
		return Response{}, err
	}

	h.log.InfoObj("finished handler", "lambda_finish", map[string]any{
		"kind":     out.Kind,
		"event_id": out.EventID,
	})
	return Response{Message: "success", Kind: out.Kind, EventID: out.EventID}, nil
}

func main() {
	cfg, err := config.Load(os.Getenv("TAJA_CONFIG_FILE"))
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}

	h := &handler{cfg: cfg, log: log}
	lambda.Start(h.Handle)
}
