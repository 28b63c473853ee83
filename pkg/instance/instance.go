package instance

import (
	"os"
	"strings"
)

const fallbackID = "storefront-0"

// GetID names the running replica: STOREFRONT_INSTANCE_ID, then the host name.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("STOREFRONT_INSTANCE_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
