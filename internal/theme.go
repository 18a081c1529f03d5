package internal

import "fmt"

// ThemeKey holds the theme preference
const ThemeKey = "tusty_theme"

// Themes
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ThemePreference persists the dark/light choice.
type ThemePreference struct {
	store Store
}

// NewThemePreference creates a ThemePreference over store
func NewThemePreference(store Store) *ThemePreference {
	return &ThemePreference{store: store}
}

// Get returns the saved theme, defaulting to dark.
func (p *ThemePreference) Get() string {
	v, ok, err := p.store.Get(ThemeKey)
	if err != nil {
		LogWarn("Failed to read theme: %v", err)
		return ThemeDark
	}
	if !ok || (v != ThemeDark && v != ThemeLight) {
		return ThemeDark
	}
	return v
}

// Set saves theme, which must be "dark" or "light".
func (p *ThemePreference) Set(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("unknown theme %q (supported: dark, light)", theme)
	}
	return p.store.Set(ThemeKey, theme)
}

// Toggle flips the theme and returns the new value.
func (p *ThemePreference) Toggle() (string, error) {
	next := ThemeLight
	if p.Get() == ThemeLight {
		next = ThemeDark
	}
	return next, p.Set(next)
}
