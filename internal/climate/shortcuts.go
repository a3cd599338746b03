package climate

// Shortcut is a named relative setpoint adjustment. Temporary
// shortcuts carry an advisory duration; the hub does not schedule the
// revert itself.
type Shortcut struct {
	Name            string  `json:"name"`
	Label           string  `json:"label"`
	Delta           float64 `json:"delta"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
}

// shortcuts is the fixed shortcut table.
var shortcuts = []Shortcut{
	{Name: "j_ai_frette", Label: "J'ai frette", Delta: 1.5, DurationMinutes: 120},
	{Name: "j_ai_chaud", Label: "J'ai chaud", Delta: -1.5, DurationMinutes: 120},
	{Name: "mode_economie", Label: "Économie", Delta: -2.0},
	{Name: "mode_confort", Label: "Confort", Delta: 1.0},
}

// Shortcuts returns the shortcut definitions in display order.
func Shortcuts() []Shortcut {
	out := make([]Shortcut, len(shortcuts))
	copy(out, shortcuts)
	return out
}

// lookupShortcut finds a shortcut by name.
func lookupShortcut(name string) (Shortcut, bool) {
	for _, s := range shortcuts {
		if s.Name == name {
			return s, true
		}
	}
	return Shortcut{}, false
}
