// Package device tracks the browser-extension installs registered against
// an account and enforces the subscription's device allowance.
package device

import (
	"time"

	"github.com/mssola/useragent"

	dErrors "beacon/pkg/domain-errors"
)

// Device is one registered install. Platform and Browser are derived from
// the registering request's User-Agent, never supplied by the client.
type Device struct {
	UserID       string    `json:"user_id"`
	DeviceID     string    `json:"device_id"`
	Name         string    `json:"name"`
	Platform     string    `json:"platform"`
	Browser      string    `json:"browser"`
	RegisteredAt time.Time `json:"registered_at"`
	LastActive   time.Time `json:"last_active"`
}

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "device not found")

// describeUserAgent extracts a platform and browser label from a raw
// User-Agent header. Unknown agents yield empty strings, which is fine.
func describeUserAgent(raw string) (platform, browser string) {
	if raw == "" {
		return "", ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if version != "" {
		browser = name + " " + version
	} else {
		browser = name
	}
	platform = ua.OSInfo().Name
	return platform, browser
}
