package model

// Toon is a playable character with fixed stats. The roster mirrors the
// character select screen of the client; the server only needs it to derive
// max health and validate picks.
type Toon struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	IsMain  bool    `json:"isMain"`
	Health  int     `json:"health"`
	Speed   float64 `json:"speed"`
	Ability string  `json:"ability"`
}

const (
	AbilityHeal     = "heal"
	AbilityStamina  = "stamina"
	AbilityDistract = "distract"
	AbilityItem     = "item"
	AbilityReveal   = "reveal"
	AbilityPassive  = "passive"
)

var Toons = []Toon{
	{ID: "pebble", Name: "Pebble", IsMain: true, Health: 2, Speed: 4.5, Ability: AbilityPassive},
	{ID: "finn", Name: "Finn", IsMain: false, Health: 3, Speed: 3.5, Ability: AbilityPassive},
	{ID: "gigi", Name: "Gigi", IsMain: false, Health: 3, Speed: 3.5, Ability: AbilityItem},
	{ID: "astro", Name: "Astro", IsMain: true, Health: 2, Speed: 3.5, Ability: AbilityStamina},
	{ID: "sprout", Name: "Sprout", IsMain: true, Health: 2, Speed: 3.5, Ability: AbilityHeal},
	{ID: "vee", Name: "Vee", IsMain: true, Health: 2, Speed: 3.5, Ability: AbilityReveal},
	{ID: "shelly", Name: "Shelly", IsMain: true, Health: 2, Speed: 3.5, Ability: AbilityPassive},
	{ID: "boxten", Name: "Boxten", IsMain: false, Health: 3, Speed: 3.5, Ability: AbilityDistract},
	{ID: "cosmo", Name: "Cosmo", IsMain: false, Health: 3, Speed: 3.5, Ability: AbilityHeal},
	{ID: "glisten", Name: "Glisten", IsMain: false, Health: 3, Speed: 3.5, Ability: AbilityPassive},
}

func ToonByID(id string) (Toon, bool) {
	for _, toon := range Toons {
		if toon.ID == id {
			return toon, true
		}
	}
	return Toon{}, false
}

// ToonHealth returns the max health for a toon pick. Unknown ids get the
// regular three hearts, same as an unrecognized pick on the client.
func ToonHealth(id string) int {
	if toon, ok := ToonByID(id); ok {
		return toon.Health
	}
	return 3
}
