package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// City is a search target: canonical name plus the coordinates used to
// bias provider queries toward it.
type City struct {
	Name      string  `koanf:"name"`
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`
}

// CityAlias maps one raw city spelling to a canonical city name. The
// table is ordered: substring matching is first-match-wins.
type CityAlias struct {
	Alias string `koanf:"alias"`
	City  string `koanf:"city"`
}

type Places struct {
	APIKey       string   `koanf:"apikey"`
	RadiusMeters int      `koanf:"radius"`
	MaxResults   int      `koanf:"maxresults"`
	VenueTypes   []string `koanf:"venuetypes"`
}

type Auth struct {
	JWTSecret string        `koanf:"jwtsecret"`
	JWTIssuer string        `koanf:"jwtissuer"`
	JWTTTL    time.Duration `koanf:"jwtttl"`
}

type Config struct {
	DBPath      string      `koanf:"dbpath"`
	DefaultCity string      `koanf:"defaultcity"`
	Places      Places      `koanf:"places"`
	Cities      []City      `koanf:"cities"`
	CityAliases []CityAlias `koanf:"cityaliases"`
	Auth        Auth        `koanf:"auth"`
}

// Default returns the built-in configuration: the Gauteng target cities
// and the alias table that folds suburbs, abbreviations and common
// misspellings into them.
func Default() Config {
	return Config{
		DefaultCity: "Johannesburg",
		Places: Places{
			RadiusMeters: 50000,
			MaxResults:   50,
			VenueTypes: []string{
				"night_club",
				"bar",
				"restaurant",
				"museum",
				"art_gallery",
				"movie_theater",
				"performing_arts_theater",
				"stadium",
				"tourist_attraction",
				"amusement_park",
				"bowling_alley",
				"casino",
				"convention_center",
				"cultural_center",
				"event_venue",
				"live_music_venue",
				"concert_hall",
			},
		},
		Cities: []City{
			{Name: "Johannesburg", Latitude: -26.2041, Longitude: 28.0473},
			{Name: "Pretoria", Latitude: -25.7461, Longitude: 28.1881},
		},
		CityAliases: []CityAlias{
			{Alias: "johannesburg", City: "Johannesburg"},
			{Alias: "jhb", City: "Johannesburg"},
			{Alias: "joburg", City: "Johannesburg"},
			{Alias: "jo'burg", City: "Johannesburg"},
			{Alias: "jozi", City: "Johannesburg"},
			{Alias: "egoli", City: "Johannesburg"},
			{Alias: "johannesberg", City: "Johannesburg"}, // common misspelling
			{Alias: "johannesburgo", City: "Johannesburg"},
			{Alias: "gauteng", City: "Johannesburg"}, // province default
			{Alias: "sandton", City: "Johannesburg"},
			{Alias: "rosebank", City: "Johannesburg"},
			{Alias: "soweto", City: "Johannesburg"},
			{Alias: "midrand", City: "Johannesburg"},
			{Alias: "fourways", City: "Johannesburg"},
			{Alias: "randburg", City: "Johannesburg"},
			{Alias: "roodepoort", City: "Johannesburg"},
			{Alias: "kempton park", City: "Johannesburg"},
			{Alias: "boksburg", City: "Johannesburg"},
			{Alias: "benoni", City: "Johannesburg"},
			{Alias: "alberton", City: "Johannesburg"},
			{Alias: "pretoria", City: "Pretoria"},
			{Alias: "pta", City: "Pretoria"},
			{Alias: "tshwane", City: "Pretoria"},
			{Alias: "city of tshwane", City: "Pretoria"},
			{Alias: "hatfield", City: "Pretoria"},
			{Alias: "menlyn", City: "Pretoria"},
			{Alias: "centurion", City: "Pretoria"},
			{Alias: "brooklyn", City: "Pretoria"}, // Pretoria's Brooklyn
			{Alias: "arcadia", City: "Pretoria"},
			{Alias: "sunnyside", City: "Pretoria"},
		},
		Auth: Auth{
			JWTSecret: "dev-secret-change-me",
			JWTIssuer: "eventhub",
			JWTTTL:    24 * time.Hour,
		},
	}
}

// Load builds the effective configuration: struct defaults, then an
// optional YAML file, then EVENTHUB_* environment overrides
// (EVENTHUB_PLACES_APIKEY -> places.apikey).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat("eventhub.yaml"); err == nil {
			path = "eventhub.yaml"
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider("EVENTHUB_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "EVENTHUB_")), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// City resolves a target city by name, case-insensitively.
func (c *Config) City(name string) (City, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, city := range c.Cities {
		if strings.ToLower(city.Name) == name {
			return city, true
		}
	}
	return City{}, false
}
