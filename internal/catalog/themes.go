package catalog

// fallbackTheme labels items whose theme id is missing from the table.
const fallbackTheme = "Other"

// themeNames maps upstream numeric theme ids to display labels. Loaded once at
// process start; never mutated.
var themeNames = map[int]string{
	1:   "Technic",
	22:  "Creator",
	50:  "Town",
	52:  "City",
	112: "Racers",
	126: "Space",
	155: "Harry Potter",
	158: "Star Wars",
	186: "Castle",
	246: "Ideas",
	252: "Architecture",
	435: "Ninjago",
	494: "Friends",
	535: "Speed Champions",
	571: "Marvel Super Heroes",
	577: "Batman",
	601: "Minecraft",
	608: "Disney",
	610: "Icons",
	687: "Botanical Collection",
}

// themeName resolves a theme id to its display label.
func themeName(id int) string {
	if name, ok := themeNames[id]; ok {
		return name
	}
	return fallbackTheme
}
