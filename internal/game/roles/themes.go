package roles

import (
	"fmt"
	"sort"
)

const (
	ThemeStandard = "standard"
	ThemeNight    = "night"
)

// themes lists each theme's roles in the order they join the pool as the
// player count grows.
var themes = map[string][]string{
	ThemeStandard: {KeyBeast, KeyVampire, KeyAssassin, KeyMedic, KeyIronclad, KeyBodyguard, KeyBerserker},
	ThemeNight:    {KeyVampire, KeyAssassin, KeyVampire, KeyBodyguard, KeyBeast, KeyAssassin, KeyMedic},
}

// Themes returns the known theme names.
func Themes() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasTheme reports whether a theme is known.
func HasTheme(theme string) bool {
	_, ok := themes[theme]
	return ok
}

// Pool returns exactly playerCount role keys for a theme. Counts beyond the
// theme's list are filled with villagers.
func Pool(theme string, playerCount int) ([]string, error) {
	order, ok := themes[theme]
	if !ok {
		return nil, fmt.Errorf("unknown role theme %q", theme)
	}
	if playerCount <= 0 {
		return nil, nil
	}
	pool := make([]string, 0, playerCount)
	for i := 0; i < playerCount; i++ {
		if i < len(order) {
			pool = append(pool, order[i])
			continue
		}
		pool = append(pool, KeyVillager)
	}
	return pool, nil
}
