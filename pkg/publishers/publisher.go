package publishers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/logger"
	"github.com/Adda-Baaj/taja-digest/internal/secrets"
	"github.com/Adda-Baaj/taja-digest/pkg/httpclient"
)

// Logger is the structured logger used by publishers.
type Logger = logger.Logger

// Publisher delivers a digest event to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Event wraps the digest of one run. HTTP publishers send only Message;
// queue publishers send the whole event.
type Event struct {
	ID        string               `json:"id"`
	Kind      string               `json:"kind"`
	CreatedAt time.Time            `json:"created_at"`
	Message   domain.DigestMessage `json:"message"`
}

// NewEvent stamps a message with a fresh id and time.
func NewEvent(kind string, msg domain.DigestMessage, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		CreatedAt: now.UTC(),
		Message:   msg,
	}
}

// Deps carries collaborators shared by publisher builders.
type Deps struct {
	Log     Logger
	Secrets secrets.Source
	HTTP    httpclient.Client
}

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}
