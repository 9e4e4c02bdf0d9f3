package enums

import "fmt"

// ToastVariant selects how a notification is rendered.
type ToastVariant string

const (
	ToastVariantDefault     ToastVariant = "default"
	ToastVariantDestructive ToastVariant = "destructive"
)

var validToastVariants = []ToastVariant{
	ToastVariantDefault,
	ToastVariantDestructive,
}

// String implements fmt.Stringer.
func (t ToastVariant) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ToastVariant.
func (t ToastVariant) IsValid() bool {
	for _, candidate := range validToastVariants {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseToastVariant converts raw input into a ToastVariant.
func ParseToastVariant(value string) (ToastVariant, error) {
	for _, candidate := range validToastVariants {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid toast variant %q", value)
}
