// Package fault defines the failure taxonomy shared between the extraction
// cascade, the tool dispatcher, and the reasoning loop. Failures cross the
// tool boundary as structured codes so the model can react to them; they are
// never raised as raw errors into the loop.
package fault

import (
	"errors"
	"fmt"
)

// Code identifies a class of automation failure.
type Code string

const (
	// Structural codes: expected outcomes of UI drift, recoverable by a
	// self-heal cycle (propose new selectors, save, retry).
	CTANotFound           Code = "CTA_NOT_FOUND"
	CTANotFoundInMoreMenu Code = "CTA_NOT_FOUND_IN_MORE_MENU"
	CTAHeaderMisselection Code = "CTA_HEADER_MISSELECTION"
	OverlayNotFound       Code = "OVERLAY_NOT_FOUND"

	// Execution codes: the remote operation itself failed. Not auto-retried.
	MCPRunCodeError Code = "MCP_RUN_CODE_ERROR"

	// ValidationFailure: tool arguments did not match the declared schema.
	InvalidArguments Code = "INVALID_ARGUMENTS"

	// Unknown is the catch-all for unclassified failures.
	Unknown Code = "UNKNOWN"
)

// Structural reports whether the code marks UI drift that a self-heal cycle
// may recover from.
func (c Code) Structural() bool {
	switch c {
	case CTANotFound, CTANotFoundInMoreMenu, CTAHeaderMisselection, OverlayNotFound:
		return true
	}
	return false
}

// Fault is a classified automation failure. It implements error so it can
// flow through ordinary return paths, but callers at the tool boundary are
// expected to unwrap it into a coded result instead of propagating it.
type Fault struct {
	Code    Code
	Message string
}

func (f *Fault) Error() string {
	if f.Message == "" {
		return string(f.Code)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// New creates a Fault with the given code and message.
func New(code Code, format string, args ...any) *Fault {
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Classify extracts the taxonomy code from err. Non-Fault errors classify as
// Unknown with their message passed through verbatim.
func Classify(err error) (Code, string) {
	if err == nil {
		return "", ""
	}
	var f *Fault
	if errors.As(err, &f) {
		return f.Code, f.Message
	}
	return Unknown, err.Error()
}
