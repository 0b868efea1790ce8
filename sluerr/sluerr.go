// Package sluerr defines the typed error hierarchy of the SLU stack.
// Every anomaly the parsers raise is rooted at SLUError so callers can
// match the whole family with a single errors.As.
package sluerr

import (
	"errors"
	"fmt"
)

// SLUError is the root of the SLU error hierarchy. Kind distinguishes the
// families of failures; Err optionally carries an underlying cause.
type SLUError struct {
	Kind    Kind
	Message string
	Err     error
}

// Kind enumerates the error families.
type Kind int

const (
	// KindGeneric covers anomalies without a more specific family.
	KindGeneric Kind = iota
	// KindConfiguration marks fatal construction-time problems (bad CLDB,
	// unknown SLU type). These are never recovered.
	KindConfiguration
	// KindDAIParse marks malformed dialogue-act text.
	KindDAIParse
	// KindInvariant marks probability-sum violations inside confusion
	// networks. Raising protects the dialogue manager from corrupt
	// hypotheses.
	KindInvariant
)

func (e *SLUError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *SLUError) Unwrap() error {
	return e.Err
}

// Is matches either the wrapped cause or another SLUError of the same kind.
func (e *SLUError) Is(target error) bool {
	var other *SLUError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return errors.Is(e.Err, target)
}

// New creates a generic SLUError.
func New(message string) *SLUError {
	return &SLUError{Kind: KindGeneric, Message: message}
}

// Configurationf creates a configuration error, raised at construction and
// treated as fatal by the callers.
func Configurationf(format string, args ...any) *SLUError {
	return &SLUError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// DAIParsef creates a dialogue-act parse error carrying the offending
// substring in its message.
func DAIParsef(format string, args ...any) *SLUError {
	return &SLUError{Kind: KindDAIParse, Message: fmt.Sprintf(format, args...)}
}

// Invariantf creates a probability-invariant violation error.
func Invariantf(format string, args ...any) *SLUError {
	return &SLUError{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a new generic SLUError.
func Wrap(err error, message string) *SLUError {
	return &SLUError{Kind: KindGeneric, Message: message, Err: err}
}

// IsConfiguration reports whether err belongs to the configuration family.
func IsConfiguration(err error) bool {
	var e *SLUError
	return errors.As(err, &e) && e.Kind == KindConfiguration
}
