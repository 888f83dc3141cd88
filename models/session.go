package models

import "time"

// RoleFarmer is the only role the product issues.
const RoleFarmer = "farmer"

// IdentitySession is the authenticated identity owned by the auth flow.
// SubjectID is either the login identifier (farmer id / phone) or a freshly
// generated farmer id for new registrations.
type IdentitySession struct {
	SubjectID         string    `json:"subjectId"`
	Role              string    `json:"role"`
	Phone             string    `json:"phone,omitempty"`
	IsNewRegistration bool      `json:"isNewRegistration"`
	CreatedAt         time.Time `json:"createdAt"`
}
