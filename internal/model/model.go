package model

import (
	"fmt"
	"time"
)

// Mode selects which map a session plays on.
type Mode string

const (
	ModeCountries  Mode = "countries"
	ModeUKCounties Mode = "uk-counties"
	ModeKentTowns  Mode = "kent-towns"
)

// Modes lists every playable mode.
var Modes = []Mode{ModeCountries, ModeUKCounties, ModeKentTowns}

// ParseMode validates a mode name. An empty name means countries.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeCountries, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// StorageKey is the persistence key for a mode's conquest records.
func (m Mode) StorageKey() string {
	switch m {
	case ModeUKCounties:
		return "wcg.ukcounties.v1"
	case ModeKentTowns:
		return "wcg.kenttowns.v1"
	}
	return "wcg.countries.v1"
}

// DataFile is the GeoJSON file name for a mode, relative to the data dir.
func (m Mode) DataFile() string {
	switch m {
	case ModeUKCounties:
		return "uk-counties.geojson"
	case ModeKentTowns:
		return "kent-towns.geojson"
	}
	return "countries.geojson"
}

// ConquerOnClick reports whether a click conquers a region directly instead
// of asking the client to confirm.
func (m Mode) ConquerOnClick() bool {
	return m == ModeKentTowns
}

// Region is one playable region of a map.
type Region struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Region      string `json:"region,omitempty"`
	Capital     string `json:"capital,omitempty"`
	IsConquered bool   `json:"isConquered"`
	Owner       string `json:"owner,omitempty"`
	Color       string `json:"color,omitempty"`
}

// RegionRecord is the persisted subset of a Region.
type RegionRecord struct {
	Code        string `json:"Code"`
	IsConquered bool   `json:"IsConquered"`
	Owner       string `json:"Owner,omitempty"`
	Color       string `json:"Color,omitempty"`
	Capital     string `json:"Capital,omitempty"`
}

// Record returns the persisted form of r.
func (r Region) Record() RegionRecord {
	return RegionRecord{
		Code:        r.Code,
		IsConquered: r.IsConquered,
		Owner:       r.Owner,
		Color:       r.Color,
		Capital:     r.Capital,
	}
}

// Player takes turns conquering regions.
type Player struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Session describes a live map session.
type Session struct {
	ID        string    `json:"id"`
	Mode      Mode      `json:"mode"`
	Players   []Player  `json:"players"`
	Turn      int       `json:"turn"`
	Current   *Player   `json:"currentPlayer,omitempty"`
	Regions   int       `json:"regions"`
	Conquered int       `json:"conquered"`
	Labels    bool      `json:"labels"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardEntry is a player's conquest tally in one mode.
type LeaderboardEntry struct {
	Player    string    `json:"player"`
	Mode      Mode      `json:"mode"`
	Conquests int       `json:"conquests"`
	UpdatedAt time.Time `json:"updatedAt"`
}
