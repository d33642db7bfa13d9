// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package errors

// ErrCode is type for multiple reconizable errors.
type ErrCode int

// error codes
const (
	// if error is unknown
	Unknown ErrCode = 0

	// if the item not found in the space
	NotFound ErrCode = 1

	// if the item already present in the space
	AlreadyExists ErrCode = 2

	// if the argument is not valid
	InvalidArgument ErrCode = 3

	// if the entity is already being monitored by the registry
	AlreadyMonitoring ErrCode = 4

	// if the entity is not currently monitored by the registry
	NotMonitoring ErrCode = 5

	// if the persistence store failed to serve the request
	PersistenceFailure ErrCode = 6

	// if the request was dropped for lack of rate budget
	Throttled ErrCode = 7
)

func (c ErrCode) String() string {
	switch c {
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case InvalidArgument:
		return "InvalidArgument"
	case AlreadyMonitoring:
		return "AlreadyMonitoring"
	case NotMonitoring:
		return "NotMonitoring"
	case PersistenceFailure:
		return "PersistenceFailure"
	case Throttled:
		return "Throttled"
	}
	return "Unknown"
}
