package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
	"github.com/kirillkom/nutrition-pipeline/internal/infrastructure/resilience"
)

const publishOp = "nats publish"

// transientErrors are connection states the client recovers from by itself.
var transientErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionReconnecting,
	nats.ErrDisconnected,
}

func isTransient(err error) bool {
	for _, target := range transientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), domain.IsKind(err, domain.ErrCanceled):
		return resilience.ErrorClassification{}
	case errors.Is(err, nats.ErrMaxPayload):
		// An oversized report fails the same way on every attempt.
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err), isTransient(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// publishError tags a publish failure with the domain kind callers branch on.
func publishError(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrCanceled):
		return err
	case errors.Is(err, context.Canceled):
		return domain.WrapError(domain.ErrCanceled, publishOp, err)
	case errors.Is(err, nats.ErrMaxPayload):
		return domain.WrapError(domain.ErrInvalidInput, publishOp, err)
	case classifyPublishError(err).Retryable:
		return domain.WrapError(domain.ErrTemporary, publishOp, err)
	default:
		return err
	}
}
