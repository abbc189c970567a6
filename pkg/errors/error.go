// Package errors is the mirror's typed error taxonomy: a small set of error
// codes grouped by category and severity, aggregated behind BaseError, plus a
// stack-trace-carrying tracer for wrapping errors from Redis, Kafka, and JSON.
package errors

import (
	"bytes"
	"reflect"
	"strings"
)

// ErrorCode identifies a specific failure condition raised by the mirror.
type ErrorCode string

const (
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	GeneralBadRequestError     ErrorCode = "general_bad_request_error"
	GeneralNotFoundError       ErrorCode = "general_not_found_error"

	// ErrMissingOracle is raised when a spot-market resting-limit query is
	// issued without an oracle price observation.
	ErrMissingOracle ErrorCode = "dlob_missing_oracle"
	// ErrUnknownMarket names a reference to a market with no MarketBook. No
	// DLOB method returns it: queries on such a market return empty results.
	ErrUnknownMarket ErrorCode = "dlob_unknown_market"
	// ErrOrderNotFound names a reference to a key absent from the DLOB. No
	// DLOB method returns it: updates and deletes of such a key are no-ops.
	ErrOrderNotFound ErrorCode = "dlob_order_not_found"

	RedisConfigError        ErrorCode = "redis_config_error"
	RedisConnectionError    ErrorCode = "redis_connection_error"
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	RedisPingError          ErrorCode = "redis_pinging_error"
	RedisGetError           ErrorCode = "redis_get_error"
	RedisSetError           ErrorCode = "redis_set_error"

	KafkaReadError   ErrorCode = "kafka_read_error"
	KafkaDecodeError ErrorCode = "kafka_decode_error"
	KafkaCommitError ErrorCode = "kafka_commit_error"
	KafkaWriteError  ErrorCode = "kafka_write_error"
)

// Severity is how urgently an error needs attention.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Category groups errors by the subsystem that raised them.
type Category string

const (
	CategoryDatabase      Category = "database"
	CategoryNetwork       Category = "network"
	CategoryValidation    Category = "validation"
	CategoryBusinessLogic Category = "business_logic"
	CategoryUnknown       Category = "unknown"
	CategoryExternal      Category = "external"
)

// BaseError aggregates one or more ErrorDetails behind a single error value.
type BaseError struct {
	details []*ErrorDetails
}

// NewBaseError builds a BaseError from one or more ErrorDetails.
func NewBaseError(details ...*ErrorDetails) *BaseError {
	return &BaseError{details: details}
}

// AddErrorDetails appends further ErrorDetails to the error.
func (b *BaseError) AddErrorDetails(details ...*ErrorDetails) {
	b.details = append(b.details, details...)
}

// GetDetails returns the accumulated ErrorDetails.
func (b *BaseError) GetDetails() []*ErrorDetails {
	return b.details
}

// Error implements the error interface.
func (b *BaseError) Error() string {
	buff := bytes.NewBufferString("")
	buff.WriteString("error on\n")
	for _, err := range b.details {
		buff.WriteString("code: ")
		buff.WriteString(err.Code)
		buff.WriteString("; error: ")
		buff.WriteString(err.Error())
		buff.WriteString("; field: ")
		buff.WriteString(err.Field)
		buff.WriteString("; object: ")
		if err.Object != nil {
			buff.WriteString(reflect.TypeOf(err.Object).String())
		}
		buff.WriteString("\n")
	}
	return strings.TrimSpace(buff.String())
}

// IsAnyCodeEqual reports whether any accumulated ErrorDetails carries code.
func (b *BaseError) IsAnyCodeEqual(code string) bool {
	for _, d := range b.details {
		if d.Code == code {
			return true
		}
	}
	return false
}
