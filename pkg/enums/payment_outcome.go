package enums

import "fmt"

// PaymentOutcome classifies the result of verifying a gateway reference.
type PaymentOutcome string

const (
	PaymentOutcomeSucceeded  PaymentOutcome = "succeeded"
	PaymentOutcomeDeclined   PaymentOutcome = "declined"
	PaymentOutcomeUnverified PaymentOutcome = "unverified"
)

var validPaymentOutcomes = []PaymentOutcome{
	PaymentOutcomeSucceeded,
	PaymentOutcomeDeclined,
	PaymentOutcomeUnverified,
}

// String implements fmt.Stringer.
func (p PaymentOutcome) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentOutcome.
func (p PaymentOutcome) IsValid() bool {
	for _, candidate := range validPaymentOutcomes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentOutcome converts raw input into a PaymentOutcome.
func ParsePaymentOutcome(value string) (PaymentOutcome, error) {
	for _, candidate := range validPaymentOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment outcome %q", value)
}
