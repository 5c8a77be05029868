package model

import "hash/fnv"

// ModuleTemplate is a reusable default configuration for a module type.
type ModuleTemplate struct {
	Type  string  `json:"type"`
	Shape string  `json:"shape"`
	Color string  `json:"color"`
	W     float64 `json:"w"`
	D     float64 `json:"d"`
	H     float64 `json:"h"`
}

// Built-in module templates for common equipment types.
var ModuleTemplates = []ModuleTemplate{
	{Type: "sleep", Shape: "capsule", Color: "green", W: 0.6, D: 0.6, H: 1.5},
	{Type: "galley", Shape: "box", Color: "orange", W: 2.0, D: 2.0, H: 2.0},
	{Type: "medbay", Shape: "box", Color: "teal", W: 2.0, D: 2.0, H: 2.0},
	{Type: "exercise", Shape: "box", Color: "purple", W: 2.0, D: 2.0, H: 2.0},
	{Type: "storage", Shape: "box", Color: "grey", W: 1.2, D: 1.2, H: 1.2},
}

// typeSynonyms maps informal names to canonical template types.
var typeSynonyms = map[string]string{
	"bunk":     "sleep",
	"bed":      "sleep",
	"crew pod": "sleep",
	"kitchen":  "galley",
	"canteen":  "galley",
	"hospital": "medbay",
	"clinic":   "medbay",
}

// CanonicalType resolves synonyms ("bunk" -> "sleep") after key
// normalization. Unknown names pass through normalized.
func CanonicalType(name string) string {
	key := NormalizeKey(name)
	if canonical, ok := typeSynonyms[key]; ok {
		return canonical
	}
	return key
}

// FindTemplate returns the template for a type name (synonyms resolved),
// or false when no template exists.
func FindTemplate(name string) (ModuleTemplate, bool) {
	key := CanonicalType(name)
	for _, t := range ModuleTemplates {
		if t.Type == key {
			return t, true
		}
	}
	return ModuleTemplate{}, false
}

// FromTemplate creates a fresh module from the named template. When the
// type has no template a plain 1x1x1 box is returned.
func FromTemplate(name string) Module {
	t, ok := FindTemplate(name)
	if !ok {
		return NewModule(CanonicalType(name), 1, 1, 1)
	}
	m := NewModule(t.Type, t.W, t.D, t.H)
	m.Shape = t.Shape
	m.Color = t.Color
	return m
}

// colorKeys is the palette of named colors understood by hosts.
var colorKeys = []string{"green", "orange", "teal", "purple", "grey", "blue", "red", "yellow"}

// ColorForType deterministically assigns one of the named palette colors
// to a module type.
func ColorForType(typeName string) string {
	h := fnv.New32a()
	h.Write([]byte(NormalizeKey(typeName)))
	return colorKeys[h.Sum32()%uint32(len(colorKeys))]
}
