package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/imagetaskflow/internal/models"
	"github.com/Lllllllleong/imagetaskflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// ResultApplier updates a task from a processing result.
type ResultApplier interface {
	ApplyResult(ctx context.Context, res models.TaskResult) error
}

// ResultHandler applies processing results delivered as Pub/Sub CloudEvents.
// Returning an error makes Pub/Sub redeliver the event, so payloads that can
// never succeed are acknowledged after logging.
func ResultHandler(svc ResultApplier) func(context.Context, cloudevents.Event) error {
	return func(ctx context.Context, e cloudevents.Event) error {
		var msg models.MessagePublishedData
		if err := json.Unmarshal(e.Data(), &msg); err != nil {
			slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID(), "data", string(e.Data()))
			return nil
		}

		var res models.TaskResult
		if err := json.Unmarshal(msg.Message.Data, &res); err != nil {
			slog.Error("Failed to unmarshal task result", "error", err, "messageId", msg.Message.MessageID)
			return nil
		}

		err := svc.ApplyResult(ctx, res)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, services.ErrInvalidRequest):
			slog.Error("Dropping invalid task result", "error", err, "messageId", msg.Message.MessageID)
			return nil
		default:
			return fmt.Errorf("apply result for message %s: %w", msg.Message.MessageID, err)
		}
	}
}
