package consent

// Prompter renders the consent prompt. It is a pure projection of manager
// state: the manager decides when the prompt surfaces or dismisses, the
// prompter decides how. Swappable so the state machine tests run without
// any rendering surface.
type Prompter interface {
	// Show surfaces the prompt with the current category set and the
	// preferences to pre-check.
	Show(categories []Category, preferences map[string]bool)
	// Hide dismisses the prompt if it is showing.
	Hide()
}

// NopPrompter is the headless default.
type NopPrompter struct{}

func (NopPrompter) Show([]Category, map[string]bool) {}
func (NopPrompter) Hide()                            {}
