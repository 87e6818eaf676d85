package services

import "errors"

// Operation error taxonomy. Controllers map these onto HTTP statuses and
// {success:false, message} bodies; storage errors are logged server-side
// and surfaced with a generic message.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrInternalInconsistency = errors.New("internal inconsistency")
	ErrReserved              = errors.New("resource reserved by another user")
)
