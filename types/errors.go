package types

import (
	"errors"
	"fmt"
)

// Standard error types
type ErrorType string

const (
	ErrTypeConfig          ErrorType = "CONFIG_ERROR"
	ErrTypeValidation      ErrorType = "VALIDATION_ERROR"
	ErrTypeInvalidValue    ErrorType = "INVALID_VALUE"
	ErrTypeNoProviders     ErrorType = "NO_PROVIDERS_AVAILABLE"
	ErrTypeProviderTimeout ErrorType = "PROVIDER_TIMEOUT"
	ErrTypeProvider        ErrorType = "PROVIDER_ERROR"
	ErrTypeTransport       ErrorType = "TRANSPORT_ERROR"
	ErrTypeAggregate       ErrorType = "AGGREGATE_FAILURE"
	ErrTypeNetwork         ErrorType = "NETWORK_ERROR"
	ErrTypeInternal        ErrorType = "INTERNAL_ERROR"
)

// StandardError provides consistent error formatting
type StandardError struct {
	Type    ErrorType
	Message string
	Details map[string]any
	Cause   error
}

func (e *StandardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// IsErrorType reports whether err (or anything it wraps) carries the given type.
func IsErrorType(err error, t ErrorType) bool {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Type == t
	}
	return false
}

// Error constructors for common cases

func NewConfigError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeConfig,
		Message: msg,
		Cause:   cause,
	}
}

func NewValidationError(field, msg string) error {
	return &StandardError{
		Type:    ErrTypeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, msg),
		Details: map[string]any{"field": field},
	}
}

func NewInvalidValueError(field, value, msg string) error {
	return &StandardError{
		Type:    ErrTypeInvalidValue,
		Message: fmt.Sprintf("invalid value for %s: %s (%s)", field, value, msg),
		Details: map[string]any{"field": field, "value": value},
	}
}

func NewNoProvidersError(fromChain, toChain ChainID) error {
	return &StandardError{
		Type:    ErrTypeNoProviders,
		Message: fmt.Sprintf("no providers available for route %d -> %d", fromChain, toChain),
		Details: map[string]any{"from_chain": fromChain, "to_chain": toChain},
	}
}

func NewProviderTimeoutError(provider ProviderType) error {
	return &StandardError{
		Type:    ErrTypeProviderTimeout,
		Message: fmt.Sprintf("provider %s exceeded calculation deadline", provider),
		Details: map[string]any{"provider": provider},
	}
}

func NewProviderError(provider ProviderType, cause error) error {
	return &StandardError{
		Type:    ErrTypeProvider,
		Message: fmt.Sprintf("provider %s failed", provider),
		Details: map[string]any{"provider": provider},
		Cause:   cause,
	}
}

func NewTransportError(url string, cause error) error {
	return &StandardError{
		Type:    ErrTypeTransport,
		Message: fmt.Sprintf("batch request to %s failed", url),
		Details: map[string]any{"url": url},
		Cause:   cause,
	}
}

func NewAggregateFailureError(attempted int) error {
	return &StandardError{
		Type:    ErrTypeAggregate,
		Message: fmt.Sprintf("no usable quote from %d attempted providers", attempted),
		Details: map[string]any{"attempted": attempted},
	}
}

func NewNetworkError(url string, cause error) error {
	return &StandardError{
		Type:    ErrTypeNetwork,
		Message: fmt.Sprintf("network request to %s failed", url),
		Details: map[string]any{"url": url},
		Cause:   cause,
	}
}

func NewInternalError(msg string, cause error) error {
	return &StandardError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

func NewLimiterNotInitializedError() error {
	return &StandardError{
		Type:    ErrTypeConfig,
		Message: "request limiter not initialized: call InitLimiter first",
	}
}
