package firebase

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/errorutils"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/token-relay/internal/storage"
)

// classify приводит ошибки Firebase SDK (HTTP) и Firestore (gRPC)
// к ошибкам storage. Исходная ошибка сохраняется в цепочке.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errorutils.IsDeadlineExceeded(err),
		errorutils.IsUnavailable(err):
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	case errorutils.IsNotFound(err):
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	case errorutils.IsAlreadyExists(err):
		return fmt.Errorf("%w: %w", storage.ErrAlreadyExists, err)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded, codes.Unavailable:
			return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
		case codes.NotFound:
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		case codes.AlreadyExists:
			return fmt.Errorf("%w: %w", storage.ErrAlreadyExists, err)
		}
	}

	return err
}
