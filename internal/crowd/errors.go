package crowd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCategory represents different categories of Crowd client errors.
type ErrorCategory string

const (
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategoryArgument       ErrorCategory = "argument"
	ErrorCategoryTransport      ErrorCategory = "transport"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
	ErrorCategoryPermission     ErrorCategory = "permission"
	ErrorCategoryNotFound       ErrorCategory = "not_found"
	ErrorCategoryConflict       ErrorCategory = "conflict"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryServer         ErrorCategory = "server"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// ConfigurationError is returned by NewClient when required settings are absent or invalid.
type ConfigurationError struct {
	Fields []string // Offending configuration fields
	Cause  error
}

func (e *ConfigurationError) Error() string {
	msg := "invalid Crowd client configuration"
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// MissingArgumentError is returned before any request is sent when a required
// call parameter is empty.
type MissingArgumentError struct {
	Operation string
	Argument  string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("crowd %s: missing required argument %q", e.Operation, e.Argument)
}

// UpstreamError carries a non-success status returned by the Crowd server.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("crowd %s failed (status %d)", e.Operation, e.StatusCode)
	if reason := e.Reason(); reason != "" {
		msg += ": " + reason
	}
	return msg
}

// Reason extracts the server message from the response body when it is a
// Crowd error document, falling back to the raw body.
func (e *UpstreamError) Reason() string {
	var doc struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := decodeJSON(e.Body, &doc); err == nil && doc.Message != "" {
		if doc.Reason != "" {
			return doc.Reason + ": " + doc.Message
		}
		return doc.Message
	}
	return strings.TrimSpace(string(e.Body))
}

// Category classifies the upstream status code.
func (e *UpstreamError) Category() ErrorCategory {
	return categorizeStatus(e.StatusCode)
}

// TransportError wraps network, TLS and timeout failures for which no status
// code is available.
type TransportError struct {
	Operation string
	Cause     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("crowd %s: transport error: %v", e.Operation, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// categorizeStatus categorizes an error based on HTTP status code.
func categorizeStatus(code int) ErrorCategory {
	switch {
	case code == http.StatusUnauthorized:
		return ErrorCategoryAuthentication
	case code == http.StatusForbidden:
		return ErrorCategoryPermission
	case code == http.StatusNotFound:
		return ErrorCategoryNotFound
	case code == http.StatusConflict:
		return ErrorCategoryConflict
	case code == http.StatusBadRequest:
		return ErrorCategoryValidation
	case code >= 500:
		return ErrorCategoryServer
	default:
		return ErrorCategoryUnknown
	}
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var upstream *UpstreamError
	var transport *TransportError
	var missing *MissingArgumentError
	var config *ConfigurationError

	switch {
	case errors.As(err, &upstream):
		return upstream.Category()
	case errors.As(err, &transport):
		return ErrorCategoryTransport
	case errors.As(err, &missing):
		return ErrorCategoryArgument
	case errors.As(err, &config):
		return ErrorCategoryConfiguration
	default:
		return ErrorCategoryUnknown
	}
}

// StatusCode returns the upstream status code carried by err, or 0.
func StatusCode(err error) int {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.StatusCode
	}
	return 0
}

// IsUpstreamError checks if an error carries an upstream status code.
func IsUpstreamError(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}

// IsTransportError checks if an error is a network, TLS or timeout failure.
func IsTransportError(err error) bool {
	var transport *TransportError
	return errors.As(err, &transport)
}

// IsMissingArgumentError checks if an error was raised before sending a request.
func IsMissingArgumentError(err error) bool {
	var missing *MissingArgumentError
	return errors.As(err, &missing)
}

// IsConflictError checks if an error indicates the entity already exists.
func IsConflictError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryConflict
}

// IsAuthenticationError checks if an error indicates rejected application credentials.
func IsAuthenticationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAuthentication
}
