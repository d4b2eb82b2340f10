package voice

// Voice describes one prebuilt synthesis voice. The catalog is static and
// read-only at runtime.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Style  string `json:"style"`
}

// Catalog returns the prebuilt voices exposed by the speech panel.
func Catalog() []Voice {
	return []Voice{
		{ID: "puck", Name: "Puck", Gender: "Male", Style: "Energetic"},
		{ID: "charon", Name: "Charon", Gender: "Male", Style: "Deep"},
		{ID: "kore", Name: "Kore", Gender: "Female", Style: "Balanced"},
		{ID: "fenrir", Name: "Fenrir", Gender: "Male", Style: "Authoritative"},
		{ID: "zephyr", Name: "Zephyr", Gender: "Female", Style: "Calm"},
	}
}

// FindByID looks up a catalog voice by identifier.
func FindByID(id string) (Voice, bool) {
	for _, v := range Catalog() {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}
