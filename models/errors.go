package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAuthentication rejects a login or registration attempt. The flow stays
// where it is; the message is safe to show to the user.
var ErrAuthentication = errors.New("invalid credentials")

// ValidationError reports an incomplete or malformed farm record. It blocks
// submission and is never surfaced as a crash.
type ValidationError struct {
	// Problems maps field name to a short reason.
	Problems map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Problems))
	for f := range e.Problems {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid record: " + strings.Join(fields, ", ")
}

// ChallengeError reports an OTP issuance or verification failure at the
// relevant registration step.
type ChallengeError struct {
	Step   string // "phone" or "challenge"
	Reason string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge %s: %s", e.Step, e.Reason)
}

// PredictionRequestError wraps a prediction service or transport failure.
// Handlers surface it as a generic retry-prompting message; the wrapped
// detail is for logs only.
type PredictionRequestError struct {
	Err error
}

func (e *PredictionRequestError) Error() string {
	return "prediction request failed: " + e.Err.Error()
}

func (e *PredictionRequestError) Unwrap() error { return e.Err }
