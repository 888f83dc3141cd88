package authflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Challenge is the opaque capability returned by a provider after a phone
// number is submitted. It is consumed by its first successful Confirm;
// failed attempts leave it open for a retry.
type Challenge interface {
	// Token identifies the challenge; treat it as opaque.
	Token() string
	// Confirm checks a user-entered code against the challenge.
	Confirm(ctx context.Context, code string) error
}

// ChallengeProvider delivers a verification challenge to a phone number.
// Real OTP delivery is an external collaborator; the product ships with the
// mock below.
type ChallengeProvider interface {
	Send(ctx context.Context, phone string) (Challenge, error)
}

// MockProvider issues challenges accepted by a single configured code.
// Placeholder for a real SMS/OTP gateway.
type MockProvider struct {
	AcceptCode string
	Log        *zap.Logger
}

func (p *MockProvider) Send(_ context.Context, phone string) (Challenge, error) {
	if p.Log != nil {
		p.Log.Info("mock otp issued", zap.String("phone", phone))
	}
	return &mockChallenge{token: uuid.NewString(), accept: p.AcceptCode}, nil
}

type mockChallenge struct {
	mu     sync.Mutex
	token  string
	accept string
	used   bool
}

func (c *mockChallenge) Token() string { return c.token }

func (c *mockChallenge) Confirm(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used {
		return errors.New("challenge already consumed")
	}
	if code != c.accept {
		// A wrong code does not burn the challenge; the user may retry.
		return errors.New("wrong code")
	}
	c.used = true
	return nil
}

// ReportSender delivers a risk report to a phone number. External
// collaborator; mocked in this build.
type ReportSender interface {
	Send(ctx context.Context, phone, report string) error
}

// LogReportSender pretends to send an SMS by logging it.
type LogReportSender struct {
	Log *zap.Logger
}

func (s *LogReportSender) Send(_ context.Context, phone, report string) error {
	if s.Log != nil {
		s.Log.Info("mock sms report", zap.String("phone", phone), zap.String("report", report))
	}
	return nil
}
