// Package models contains the core data structures for SpectraOps.
package models

import (
	"time"
)

// Severity represents the severity level of a captured error.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Environment represents the deployment environment an error was captured in.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// ErrorEvent represents a single captured failure.
//
// An event is created client-side by the SDK, transmitted in a batch, and
// becomes read-only once persisted. ID and ReceivedAt are assigned at
// persist time; ProjectID is attached from the resolved request scope and
// never changes afterwards.
type ErrorEvent struct {
	ID              string      `json:"id"`
	ProjectID       string      `json:"project_id,omitempty"`
	Message         string      `json:"message"`
	Stack           string      `json:"stack,omitempty"`
	SourceURL       string      `json:"source_url,omitempty"`
	UserAgent       string      `json:"user_agent,omitempty"`
	Environment     Environment `json:"environment"`
	Severity        Severity    `json:"severity"`
	ClientTimestamp *time.Time  `json:"client_timestamp,omitempty"`
	ReceivedAt      time.Time   `json:"received_at"`
}

// ValidSeverity reports whether s is one of the allowed severity values.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityFatal:
		return true
	}
	return false
}

// ValidEnvironment reports whether e is one of the allowed environments.
func ValidEnvironment(e Environment) bool {
	switch e {
	case EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}
