package eligibility

import "fmt"

// RedirectVerification is the route of the KYC flow denied actions point to
const RedirectVerification = "verification"

// Action is a monetary action gated on verification
type Action string

const (
	ActionRecharge Action = "recharge"
	ActionSend     Action = "send"
)

// ParseAction parses the wire name of an action
func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionRecharge, ActionSend:
		return a, true
	default:
		return "", false
	}
}

// Decision is the outcome of a gate check.
// The gate is a client-side shortcut; the backend re-checks every request
type Decision struct {
	Redirect string `json:"redirect,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Allowed  bool   `json:"allowed"`
}

// CheckAction decides whether the action may proceed for the given status.
// Only verified accounts are allowed; a nil status counts as unverified
func CheckAction(s Status, action Action) Decision {
	var prompt string

	switch st := s.(type) {
	case Verified:
		return Decision{Allowed: true}
	case Pending:
		prompt = "Your identity verification is under review. You can " +
			string(action) + " once it is approved."
	case Rejected:
		prompt = "Your identity verification was rejected"
		if st.Reason != "" {
			prompt += ": " + st.Reason
		}

		prompt += ". Please submit your documents again."
	default:
		prompt = "Verify your identity to " + string(action) + "."
	}

	return Decision{
		Redirect: RedirectVerification,
		Prompt:   prompt,
	}
}

// DeniedError is returned by gated operations when the gate denies the action
type DeniedError struct {
	Action   Action
	Decision Decision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Action, e.Decision.Prompt)
}

// Require returns a *DeniedError when the action isn't allowed
func Require(s Status, action Action) error {
	d := CheckAction(s, action)
	if d.Allowed {
		return nil
	}

	return &DeniedError{
		Action:   action,
		Decision: d,
	}
}
