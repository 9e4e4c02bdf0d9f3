package checkout

import (
	"regexp"
	"strings"

	"github.com/angelmondragon/gearstore/pkg/storeapi"
)

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern     = regexp.MustCompile(`^[0-9]{10,11}$`)
	phoneSeparators  = regexp.MustCompile(`[\s-]`)
	invalidFormTitle = "Please fill in all required fields correctly"
)

// Form is the shopper's contact and delivery input.
type Form struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	DeliveryZone   string `json:"delivery_zone"`
	AdditionalInfo string `json:"additional_info"`
}

// Normalized returns the form with surrounding whitespace removed.
func (f Form) Normalized() Form {
	return Form{
		FirstName:      strings.TrimSpace(f.FirstName),
		LastName:       strings.TrimSpace(f.LastName),
		Email:          strings.TrimSpace(f.Email),
		Phone:          strings.TrimSpace(f.Phone),
		Address:        strings.TrimSpace(f.Address),
		City:           strings.TrimSpace(f.City),
		State:          strings.TrimSpace(f.State),
		DeliveryZone:   strings.TrimSpace(f.DeliveryZone),
		AdditionalInfo: strings.TrimSpace(f.AdditionalInfo),
	}
}

func (f Form) customerInfo() storeapi.CustomerInfo {
	return storeapi.CustomerInfo{
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Phone:          f.Phone,
		Address:        f.Address,
		City:           f.City,
		State:          f.State,
		DeliveryZone:   f.DeliveryZone,
		AdditionalInfo: f.AdditionalInfo,
	}
}

// Validate returns field-keyed error messages. An empty map means the form is valid.
func Validate(form Form) map[string]string {
	errs := map[string]string{}
	required := func(field, value, message string) bool {
		if strings.TrimSpace(value) == "" {
			errs[field] = message
			return false
		}
		return true
	}

	required("first_name", form.FirstName, "First name is required")
	required("last_name", form.LastName, "Last name is required")
	if required("email", form.Email, "Email is required") && !emailPattern.MatchString(strings.TrimSpace(form.Email)) {
		errs["email"] = "Invalid email format"
	}
	if required("phone", form.Phone, "Phone number is required") && !phonePattern.MatchString(stripPhone(form.Phone)) {
		errs["phone"] = "Invalid phone number"
	}
	required("address", form.Address, "Delivery address is required")
	required("city", form.City, "City is required")
	required("state", form.State, "State is required")
	if _, ok := LookupZone(strings.TrimSpace(form.DeliveryZone)); !ok {
		errs["delivery_zone"] = "Please select a delivery zone"
	}
	return errs
}

func stripPhone(phone string) string {
	return phoneSeparators.ReplaceAllString(phone, "")
}
