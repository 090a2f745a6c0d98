package dispatch

import (
	"errors"

	"github.com/GrandEngineering/engine/pkg/taskstore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mapStoreErr translates a taskstore sentinel error into the
// client-facing status kind spec §6/§7 names. A non-sentinel error is
// treated as a persistence failure (Internal).
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, taskstore.ErrNotRegistered), errors.Is(err, taskstore.ErrVerifyFailed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, taskstore.ErrNoTask), errors.Is(err, taskstore.ErrNotAssigned), errors.Is(err, taskstore.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
