package enums

import "testing"

func TestParseCheckoutState(t *testing.T) {
	got, err := ParseCheckoutState("redirected_to_gateway")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != CheckoutStateRedirectedToGateway || !got.IsTerminal() {
		t.Fatalf("unexpected state %q", got)
	}
	if CheckoutStateSubmitting.IsTerminal() {
		t.Fatal("submitting must not be terminal")
	}
	if _, err := ParseCheckoutState("paid"); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestToastVariantValidity(t *testing.T) {
	if !ToastVariantDestructive.IsValid() {
		t.Fatal("destructive should be valid")
	}
	if ToastVariant("loud").IsValid() {
		t.Fatal("unknown variant should be invalid")
	}
	if _, err := ParseToastVariant(""); err == nil {
		t.Fatal("expected error for empty variant")
	}
}

func TestParsePaymentOutcome(t *testing.T) {
	for _, value := range []string{"succeeded", "declined", "unverified"} {
		got, err := ParsePaymentOutcome(value)
		if err != nil || got.String() != value {
			t.Fatalf("parse %q: got %q err=%v", value, got, err)
		}
	}
}
