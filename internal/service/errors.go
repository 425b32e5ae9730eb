package service

import "errors"

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrOperationInFlight = errors.New("operation already in flight")
)
