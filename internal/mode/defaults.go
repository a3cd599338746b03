package mode

import (
	"context"
	"fmt"
)

// SeedDefaults inserts the household's standard modes when the table is
// empty. Called once at startup; a non-empty table is left untouched so
// operator edits survive restarts.
func SeedDefaults(ctx context.Context, repo Repository) error {
	existing, err := repo.List(ctx, false)
	if err != nil {
		return fmt.Errorf("checking existing modes: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, m := range defaultModes() {
		mode := m
		if err := repo.Create(ctx, &mode); err != nil {
			return fmt.Errorf("seeding mode %s: %w", mode.Name, err)
		}
	}
	return nil
}

// defaultModes returns the four stock presets.
func defaultModes() []Mode {
	return []Mode{
		{
			ID:           "mode_matin",
			Name:         "mode_matin",
			Label:        "Matin",
			Description:  "Réveil en douceur: chauffage confort, lumières tamisées",
			Icon:         "sunrise",
			Color:        "#FFB74D",
			Enabled:      true,
			DisplayOrder: 1,
			Actions: []Action{
				{Type: ActionClimate, Command: "setHeatingSetpoint", Value: floatPtr(21.0)},
				{Type: ActionDevice, DeviceType: "light", Rooms: []string{"cuisine"}, Command: "setLevel", Value: floatPtr(60)},
				{Type: ActionDevice, DeviceType: "light", Rooms: []string{"salon"}, Command: "setLevel", Value: floatPtr(40)},
			},
		},
		{
			ID:           "mode_souper",
			Name:         "mode_souper",
			Label:        "Souper",
			Description:  "Ambiance repas: cuisine pleine, salle à manger tamisée",
			Icon:         "utensils",
			Color:        "#FF7043",
			Enabled:      true,
			DisplayOrder: 2,
			Actions: []Action{
				{Type: ActionDevice, DeviceType: "light", Rooms: []string{"cuisine"}, Command: "setLevel", Value: floatPtr(100)},
				{Type: ActionDevice, DeviceType: "light", Rooms: []string{"salle-a-manger"}, Command: "setLevel", Value: floatPtr(50)},
				{Type: ActionDevice, DeviceType: "light", Rooms: []string{"salon"}, Command: "setLevel", Value: floatPtr(30)},
			},
		},
		{
			ID:           "mode_nuit",
			Name:         "mode_nuit",
			Label:        "Nuit",
			Description:  "Tout éteint, portes barrées, chauffage réduit",
			Icon:         "moon",
			Color:        "#5C6BC0",
			Enabled:      true,
			DisplayOrder: 3,
			Actions: []Action{
				{Type: ActionDevice, DeviceType: "light", Command: "off"},
				{Type: ActionDevice, DeviceType: "lock", Command: "lock"},
				{Type: ActionClimate, Command: "setHeatingSetpoint", Value: floatPtr(18.0)},
			},
		},
		{
			ID:           "mode_absence",
			Name:         "mode_absence",
			Label:        "Absence",
			Description:  "Maison vide: tout éteint, verrouillé, chauffage minimal",
			Icon:         "home",
			Color:        "#90A4AE",
			Enabled:      true,
			DisplayOrder: 4,
			Actions: []Action{
				{Type: ActionDevice, DeviceType: "light", Command: "off"},
				{Type: ActionDelay, Seconds: 2},
				{Type: ActionDevice, DeviceType: "lock", Command: "lock"},
				{Type: ActionClimate, Command: "setHeatingSetpoint", Value: floatPtr(16.5)},
			},
		},
	}
}
