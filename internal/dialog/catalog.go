package dialog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const UmbrellaNYC = "nyc"

// Location is one accepted user-facing location and the indexed city values
// it expands to.
type Location struct {
	Name     string
	Display  string
	Cities   []string
	Aliases  []string
	Umbrella bool
}

// Catalog is the immutable set of locations and cuisines a deployment serves.
type Catalog struct {
	names    map[string]string
	cities   map[string][]string
	display  map[string]string
	cuisines map[string]string

	listedLocations []string
	listedCuisines  []string
}

// titleCase builds a fresh Caser per call; Casers are not goroutine safe.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// NewCatalog builds a Catalog. Location names and aliases are matched after
// trimming and lower-casing; cuisines are matched case-insensitively and
// reported in the casing given here.
func NewCatalog(locations []Location, cuisines []string) (Catalog, error) {
	if len(locations) == 0 {
		return Catalog{}, errors.New("dialog: catalog needs at least one location")
	}
	if len(cuisines) == 0 {
		return Catalog{}, errors.New("dialog: catalog needs at least one cuisine")
	}

	c := Catalog{
		names:    make(map[string]string),
		cities:   make(map[string][]string),
		display:  make(map[string]string),
		cuisines: make(map[string]string),
	}
	for _, loc := range locations {
		name := normalizeKey(loc.Name)
		if name == "" {
			return Catalog{}, errors.New("dialog: location name must not be empty")
		}
		if len(loc.Cities) == 0 {
			return Catalog{}, fmt.Errorf("dialog: location %q has no cities", name)
		}
		if _, dup := c.cities[name]; dup {
			return Catalog{}, fmt.Errorf("dialog: duplicate location %q", name)
		}
		c.cities[name] = append([]string(nil), loc.Cities...)

		display := strings.TrimSpace(loc.Display)
		if display == "" {
			display = titleCase(name)
		}
		c.display[name] = display

		for _, key := range append([]string{loc.Name}, loc.Aliases...) {
			key = normalizeKey(key)
			if prev, dup := c.names[key]; dup && prev != name {
				return Catalog{}, fmt.Errorf("dialog: %q maps to both %q and %q", key, prev, name)
			}
			c.names[key] = name
		}
		if !loc.Umbrella {
			c.listedLocations = append(c.listedLocations, display)
		}
	}
	for _, cuisine := range cuisines {
		key := normalizeKey(cuisine)
		if key == "" {
			return Catalog{}, errors.New("dialog: cuisine must not be empty")
		}
		c.cuisines[key] = strings.TrimSpace(cuisine)
		c.listedCuisines = append(c.listedCuisines, strings.TrimSpace(cuisine))
	}
	return c, nil
}

// DefaultCatalog returns the production locations and cuisines.
func DefaultCatalog() Catalog {
	c, err := NewCatalog([]Location{
		{Name: "new york", Cities: []string{"New York"}},
		{Name: "manhattan", Cities: []string{"Manhattan"}},
		{Name: "brooklyn", Cities: []string{"Brooklyn"}},
		{Name: "queens", Cities: []string{"Queens"}},
		{Name: "chicago", Cities: []string{"Chicago"}},
		{Name: "los angeles", Cities: []string{"Los Angeles"}},
		{Name: "san francisco", Cities: []string{"San Francisco"}},
		{Name: "boston", Cities: []string{"Boston"}},
		{Name: "seattle", Cities: []string{"Seattle"}},
		{Name: "austin", Cities: []string{"Austin"}},
		{Name: "miami", Cities: []string{"Miami"}},
		{
			Name:     UmbrellaNYC,
			Display:  "NYC",
			Cities:   []string{"New York", "Manhattan", "Brooklyn", "Queens"},
			Aliases:  []string{"new york city"},
			Umbrella: true,
		},
	}, []string{"Indian", "Chinese", "Italian", "Mexican", "Japanese"})
	if err != nil {
		panic(err)
	}
	return c
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeLocation maps user input to its canonical location name.
func (c Catalog) NormalizeLocation(raw string) (string, bool) {
	name, ok := c.names[normalizeKey(raw)]
	return name, ok
}

// Cities returns the indexed city values for a normalized location. Unknown
// locations fall back to their title-cased form.
func (c Catalog) Cities(location string) []string {
	if cities, ok := c.cities[normalizeKey(location)]; ok {
		return append([]string(nil), cities...)
	}
	return []string{titleCase(normalizeKey(location))}
}

// DisplayLocation returns the user-facing form of a normalized location.
func (c Catalog) DisplayLocation(location string) string {
	if d, ok := c.display[normalizeKey(location)]; ok {
		return d
	}
	return titleCase(location)
}

// Cuisine returns the canonical spelling of a cuisine.
func (c Catalog) Cuisine(raw string) (string, bool) {
	v, ok := c.cuisines[normalizeKey(raw)]
	return v, ok
}

func (c Catalog) locationList() string { return joinOr(c.listedLocations) }
func (c Catalog) cuisineList() string  { return joinOr(c.listedCuisines) }

func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
}
