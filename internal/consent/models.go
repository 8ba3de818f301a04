// Package consent owns the cookie-consent state machine: the category set,
// the user's per-category preferences, and the decided flag. Rendering the
// prompt is a projection of this state and lives behind the Prompter
// interface.
package consent

import "time"

// CurrentVersion is the schema version of the category set. A persisted
// record carrying a different version is discarded and treated as
// "undecided".
const CurrentVersion = "1.0"

// Category is a named class of data collection the user can allow or deny.
// Required categories are always granted and cannot be unchecked.
type Category struct {
	Key         string
	Name        string
	Description string
	Required    bool
	Default     bool
}

// CategoryEssential and CategoryAnalytics are the two categories every
// deployment starts with. Callers extend the set via AddCategory.
const (
	CategoryEssential = "essential"
	CategoryAnalytics = "analytics"
)

// DefaultCategories returns the seed category set, in display order.
func DefaultCategories() []Category {
	return []Category{
		{
			Key:         CategoryEssential,
			Name:        "Essential",
			Description: "Required for the website to function properly.",
			Required:    true,
			Default:     true,
		},
		{
			Key:         CategoryAnalytics,
			Name:        "Analytics",
			Description: "Help us understand how visitors use our website.",
			Required:    false,
			Default:     false,
		},
	}
}

// Record is the persisted consent decision.
type Record struct {
	Version     string          `json:"version"`
	Preferences map[string]bool `json:"preferences"`
	Decided     bool            `json:"decided"`
	Timestamp   time.Time       `json:"timestamp"`
}
