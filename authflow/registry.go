package authflow

import (
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// UserRegistry keeps bcrypt hashes for accounts created during this process's
// lifetime. Nothing persists across restarts by design.
type UserRegistry struct {
	mu     sync.RWMutex
	hashes map[string]string // subject id -> bcrypt hash
}

func NewUserRegistry() *UserRegistry {
	return &UserRegistry{hashes: map[string]string{}}
}

// Register stores a bcrypt hash for the subject.
func (r *UserRegistry) Register(subject, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hashes[subject] = string(hash)
	return nil
}

// Check reports whether subject is registered with this password.
func (r *UserRegistry) Check(subject, password string) bool {
	r.mu.RLock()
	hash, ok := r.hashes[subject]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CredentialChecker decides whether a login attempt is valid. The state
// machine only depends on this seam, so the demo rule below can be swapped
// for a real credential service without touching the flow.
type CredentialChecker interface {
	Check(identifier, password string) bool
}

// DemoChecker accepts registered users by hash, plus the demo sentinel rule
// carried over from the product's mock auth: a known sentinel password, or a
// "farmer" identifier with any password of four or more characters.
// Placeholder for a real credential-verification service.
type DemoChecker struct {
	Registry *UserRegistry
}

func (c *DemoChecker) Check(identifier, password string) bool {
	if c.Registry != nil && c.Registry.Check(identifier, password) {
		return true
	}
	if password == "password" || password == "123456" {
		return true
	}
	return strings.Contains(identifier, "farmer") && len(password) >= 4
}
