package env

import (
	"os"
	"strings"
)

// InstanceIDKey names the variable that overrides the process identity in logs.
const InstanceIDKey = "GEARSTORE_INSTANCE_ID"

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// InstanceID identifies this process: the override variable, then the
// hostname, then a fixed default.
func InstanceID() string {
	if id := Get(InstanceIDKey, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "storefront-0"
}
