package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api"
)

// toConnectError maps ledger and storage errors to Connect codes.
// Validation failures also carry their kind in the Ledger-Error-Kind header.
func toConnectError(err error) *connect.Error {
	if kind, ok := models.KindOf(err); ok {
		code := connect.CodeInvalidArgument
		switch kind {
		case models.KindDuplicateEmail:
			code = connect.CodeAlreadyExists
		case models.KindUserNotFound:
			code = connect.CodeNotFound
		}
		connectErr := connect.NewError(code, err)
		connectErr.Meta().Set(api.ErrorKindHeader, string(kind))
		return connectErr
	}

	switch {
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, storage.ErrUnavailable):
		slog.Error("Storage unavailable", "error", err)
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
