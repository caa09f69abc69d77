package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownStatus is returned for a verification status the client doesn't know
	ErrUnknownStatus = errors.New("unknown verification status")

	// ErrInvalidTransition is returned for a status change the KYC flow doesn't allow
	ErrInvalidTransition = errors.New("invalid verification transition")
)

// Status is the verification status of an account.
// The set of implementations is closed: Unverified, Pending, Verified and Rejected
type Status interface {
	fmt.Stringer

	isStatus()
}

// Unverified accounts never submitted KYC documents
type Unverified struct{}

// Pending accounts have a submission awaiting review
type Pending struct{}

// Verified accounts were approved by an admin
type Verified struct{}

// Rejected accounts were turned down and may resubmit
type Rejected struct {
	Reason string
}

func (Unverified) isStatus() {}
func (Pending) isStatus()    {}
func (Verified) isStatus()   {}
func (Rejected) isStatus()   {}

func (Unverified) String() string { return "unverified" }
func (Pending) String() string    { return "pending" }
func (Verified) String() string   { return "verified" }
func (Rejected) String() string   { return "rejected" }

// ParseStatus maps the backend's verification_status / rejection_reason pair
func ParseStatus(status, reason string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "", "unverified", "not_submitted":
		return Unverified{}, nil
	case "pending":
		return Pending{}, nil
	case "verified":
		return Verified{}, nil
	case "rejected":
		return Rejected{Reason: reason}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
}

// Reason returns the rejection reason, if the status carries one
func Reason(s Status) string {
	if r, ok := s.(Rejected); ok {
		return r.Reason
	}

	return ""
}

// Submit applies a KYC submission. Unverified and Rejected accounts move to Pending
func Submit(s Status) (Status, error) {
	switch s.(type) {
	case Unverified, Rejected, nil:
		return Pending{}, nil
	case Pending, Verified:
		return s, fmt.Errorf("%w: cannot submit from %s", ErrInvalidTransition, s)
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownStatus, s)
	}
}

// Decide applies an admin decision to a pending submission
func Decide(s Status, approved bool, reason string) (Status, error) {
	if _, ok := s.(Pending); !ok {
		return s, fmt.Errorf("%w: cannot decide on %v", ErrInvalidTransition, s)
	}

	if approved {
		return Verified{}, nil
	}

	return Rejected{Reason: reason}, nil
}
