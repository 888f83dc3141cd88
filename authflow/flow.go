// Package authflow implements the two-path identity flow: password login, or
// a three-step phone registration (phone capture, challenge verification,
// credential creation) that ends with a generated farmer id. One Flow exists
// per client; only one registration runs at a time within it.
package authflow

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"watersower/models"
)

// State of the flow's top-level machine.
type State string

const (
	StateLoginForm  State = "login"
	StatePhone      State = "phone"
	StateChallenge  State = "challenge"
	StateCredential State = "credential"
	StateLoggedIn   State = "logged_in"
)

// Progress is the transient registration data. Discarded on success, on
// ResetFlow, or on switching back to login.
type Progress struct {
	Phone       string
	GeneratedID string
	challenge   Challenge
}

// Flow is the identity state machine for one client.
type Flow struct {
	mu       sync.Mutex
	state    State
	progress Progress
	session  *models.IdentitySession
	pending  bool // an async provider call is in flight

	provider ChallengeProvider
	checker  CredentialChecker
	registry *UserRegistry
}

func NewFlow(provider ChallengeProvider, checker CredentialChecker, registry *UserRegistry) *Flow {
	return &Flow{
		state:    StateLoginForm,
		provider: provider,
		checker:  checker,
		registry: registry,
	}
}

// State returns the current machine state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Session returns the authenticated session, if any.
func (f *Flow) Session() (models.IdentitySession, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return models.IdentitySession{}, false
	}
	return *f.session, true
}

// Login attempts the password path. On failure the machine stays in the
// login form.
func (f *Flow) Login(identifier, password string) (models.IdentitySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if identifier == "" || !f.checker.Check(identifier, password) {
		return models.IdentitySession{}, models.ErrAuthentication
	}
	s := models.IdentitySession{
		SubjectID: identifier,
		Role:      models.RoleFarmer,
		CreatedAt: time.Now(),
	}
	f.session = &s
	f.state = StateLoggedIn
	f.progress = Progress{}
	return s, nil
}

// RequestChallenge validates the phone number and asks the provider for a
// challenge. Malformed numbers are rejected before the provider is contacted.
// A second request while one is pending is refused.
func (f *Flow) RequestChallenge(ctx context.Context, phone string) error {
	normalized, ok := normalizePhone(phone)
	if !ok {
		return &models.ChallengeError{Step: "phone", Reason: "enter a valid mobile number"}
	}

	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return &models.ChallengeError{Step: "phone", Reason: "request already in progress"}
	}
	f.pending = true
	f.mu.Unlock()

	ch, err := f.provider.Send(ctx, normalized)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil {
		// Stay in the phone step.
		return &models.ChallengeError{Step: "phone", Reason: "failed to send code"}
	}
	f.progress = Progress{Phone: normalized, challenge: ch}
	f.state = StateChallenge
	return nil
}

// VerifyChallenge confirms a user-entered code against the issued challenge
// and, on success, generates the farmer id.
func (f *Flow) VerifyChallenge(ctx context.Context, code string) (string, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return "", &models.ChallengeError{Step: "challenge", Reason: "request already in progress"}
	}
	ch := f.progress.challenge
	if ch == nil {
		f.mu.Unlock()
		return "", &models.ChallengeError{Step: "challenge", Reason: "no pending verification"}
	}
	f.pending = true
	f.mu.Unlock()

	err := ch.Confirm(ctx, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = false
	if err != nil {
		return "", &models.ChallengeError{Step: "challenge", Reason: "invalid code"}
	}
	f.progress.challenge = nil // consumed
	f.progress.GeneratedID = newFarmerID()
	f.state = StateCredential
	return f.progress.GeneratedID, nil
}

// CompleteRegistration sets the credential and logs the new farmer in.
// A password mismatch fails without leaving the credential step.
func (f *Flow) CompleteRegistration(password, confirm string) (models.IdentitySession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateCredential || f.progress.GeneratedID == "" {
		return models.IdentitySession{}, models.ErrAuthentication
	}
	if password == "" || password != confirm {
		return models.IdentitySession{}, &models.ChallengeError{Step: "credential", Reason: "passwords do not match"}
	}
	if err := f.registry.Register(f.progress.GeneratedID, password); err != nil {
		return models.IdentitySession{}, err
	}
	s := models.IdentitySession{
		SubjectID:         f.progress.GeneratedID,
		Role:              models.RoleFarmer,
		Phone:             f.progress.Phone,
		IsNewRegistration: true,
		CreatedAt:         time.Now(),
	}
	f.session = &s
	f.state = StateLoggedIn
	f.progress = Progress{}
	return s, nil
}

// ResetFlow toggles between the login form and the registration path,
// discarding any registration progress.
func (f *Flow) ResetFlow() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = Progress{}
	if f.state == StateLoginForm {
		f.state = StatePhone
	} else {
		f.state = StateLoginForm
	}
}

// Logout discards the session and returns to the login form.
func (f *Flow) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = nil
	f.progress = Progress{}
	f.state = StateLoginForm
}

// newFarmerID generates a short human-readable farmer identifier.
func newFarmerID() string {
	return fmt.Sprintf("FID-%d", 10000+rand.Intn(90000))
}

// normalizePhone strips formatting and checks for a plausible mobile number:
// an optional leading +, then at least ten digits.
func normalizePhone(phone string) (string, bool) {
	phone = strings.TrimSpace(phone)
	plus := strings.HasPrefix(phone, "+")
	if plus {
		phone = phone[1:]
	}
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, phone)
	if len(digits) < 10 {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if plus {
		return "+" + digits, true
	}
	return digits, true
}
