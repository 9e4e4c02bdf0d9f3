package enums

import "fmt"

// CheckoutState tracks where a checkout attempt sits in the submit flow.
type CheckoutState string

const (
	CheckoutStateIdle                CheckoutState = "idle"
	CheckoutStateValidating          CheckoutState = "validating"
	CheckoutStateSubmitting          CheckoutState = "submitting"
	CheckoutStateRedirectedToGateway CheckoutState = "redirected_to_gateway"
	CheckoutStateValidationFailed    CheckoutState = "validation_failed"
	CheckoutStateSubmissionFailed    CheckoutState = "submission_failed"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateValidating,
	CheckoutStateSubmitting,
	CheckoutStateRedirectedToGateway,
	CheckoutStateValidationFailed,
	CheckoutStateSubmissionFailed,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt has finished, successfully or not.
func (c CheckoutState) IsTerminal() bool {
	switch c {
	case CheckoutStateRedirectedToGateway, CheckoutStateValidationFailed, CheckoutStateSubmissionFailed:
		return true
	}
	return false
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
