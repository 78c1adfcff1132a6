package domain

import "errors"

// Domain errors
var (
	// ErrInvalidSignature returned when HMAC signature validation fails
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrInvalidPayload returned when the notification body cannot be decoded
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrInvalidTimestamp returned when eventDate cannot be parsed
	ErrInvalidTimestamp = errors.New("invalid event timestamp")

	// ErrInvalidAmount returned when the amount value is not numeric
	ErrInvalidAmount = errors.New("invalid amount value")

	// ErrDatabaseWrite returned when a batch write fails
	ErrDatabaseWrite = errors.New("failed to write to database")

	// ErrDatabaseRead returned when a warehouse query fails
	ErrDatabaseRead = errors.New("failed to read from database")

	// ErrNotFound returned when a query matched no rows
	ErrNotFound = errors.New("not found")
)
