package models

import (
	"sort"
	"strconv"
	"strings"
)

const (
	MinGuests = 1
	MaxGuests = 16
)

// AmenityKey identifies one selectable amenity in the search wizard.
type AmenityKey string

const (
	AmenityWifi      AmenityKey = "wifi"
	AmenityKitchen   AmenityKey = "kitchen"
	AmenityWasher    AmenityKey = "washer"
	AmenityDryer     AmenityKey = "dryer"
	AmenityAC        AmenityKey = "ac"
	AmenityHeating   AmenityKey = "heating"
	AmenityTV        AmenityKey = "tv"
	AmenityPool      AmenityKey = "pool"
	AmenityGym       AmenityKey = "gym"
	AmenityParking   AmenityKey = "parking"
	AmenityWorkspace AmenityKey = "workspace"
	AmenityPets      AmenityKey = "pets"
)

// AmenityOption pairs a key with its display label.
type AmenityOption struct {
	Key   AmenityKey
	Label string
}

// Amenities is the catalogue offered in the multi-select, in display order.
var Amenities = []AmenityOption{
	{AmenityWifi, "WiFi 📶"},
	{AmenityKitchen, "Kitchen 🍳"},
	{AmenityWasher, "Washer 🧺"},
	{AmenityDryer, "Dryer 👕"},
	{AmenityAC, "Air Conditioning ❄️"},
	{AmenityHeating, "Heating 🔥"},
	{AmenityTV, "TV 📺"},
	{AmenityPool, "Pool 🏊‍♂️"},
	{AmenityGym, "Gym 💪"},
	{AmenityParking, "Free Parking 🚗"},
	{AmenityWorkspace, "Workspace 💻"},
	{AmenityPets, "Pets Allowed 🐾"},
}

// AmenityLabel returns the display label for key.
func AmenityLabel(key AmenityKey) (string, bool) {
	for _, a := range Amenities {
		if a.Key == key {
			return a.Label, true
		}
	}
	return "", false
}

// AmenitySet is the canonical representation of a user's amenity selection.
type AmenitySet map[AmenityKey]struct{}

func NewAmenitySet(keys ...AmenityKey) AmenitySet {
	s := make(AmenitySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Toggle flips membership of key. Toggling twice restores the original set.
func (s AmenitySet) Toggle(key AmenityKey) {
	if _, ok := s[key]; ok {
		delete(s, key)
		return
	}
	s[key] = struct{}{}
}

func (s AmenitySet) Has(key AmenityKey) bool {
	_, ok := s[key]
	return ok
}

func (s AmenitySet) Len() int { return len(s) }

// Keys returns the members in catalogue order, unknown keys last in
// lexical order.
func (s AmenitySet) Keys() []AmenityKey {
	keys := make([]AmenityKey, 0, len(s))
	for _, a := range Amenities {
		if s.Has(a.Key) {
			keys = append(keys, a.Key)
		}
	}
	var extra []string
	for k := range s {
		if _, known := AmenityLabel(k); !known {
			extra = append(extra, string(k))
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		keys = append(keys, AmenityKey(k))
	}
	return keys
}

// Strings is Keys as plain strings, the persistence representation.
func (s AmenitySet) Strings() []string {
	keys := s.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

// Clone returns an independent copy.
func (s AmenitySet) Clone() AmenitySet {
	c := make(AmenitySet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// PriceRange is a nightly price window in whole currency units.
type PriceRange struct {
	Min int
	Max int
}

// ParsePriceRange accepts "200" (max only, min 0) or "100-200". It only
// checks the syntax; call Validate to enforce Min <= Max.
func ParsePriceRange(text string) (PriceRange, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "$", ""))
	if !strings.Contains(text, "-") {
		hi, err := parseAmount(text)
		if err != nil {
			return PriceRange{}, ErrPriceFormat
		}
		return PriceRange{Min: 0, Max: hi}, nil
	}

	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return PriceRange{}, ErrPriceFormat
	}
	lo, err := parseAmount(parts[0])
	if err != nil {
		return PriceRange{}, ErrPriceFormat
	}
	hi, err := parseAmount(parts[1])
	if err != nil {
		return PriceRange{}, ErrPriceFormat
	}
	return PriceRange{Min: lo, Max: hi}, nil
}

func (p PriceRange) Validate() error {
	if p.Min < 0 || p.Max < 0 {
		return ErrPriceFormat
	}
	if p.Min > p.Max {
		return ErrPriceInverted
	}
	return nil
}

func parseAmount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrPriceFormat
	}
	return n, nil
}

// ParseGuestCount parses and range-checks the guest count.
func ParseGuestCount(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < MinGuests || n > MaxGuests {
		return 0, ErrGuestCount
	}
	return n, nil
}

// SearchCriteria is filled one field per wizard step.
type SearchCriteria struct {
	Location   string
	CheckIn    Date
	CheckOut   Date
	GuestCount int
	Amenities  AmenitySet
	Price      PriceRange
}

// Validate checks a complete criteria set against today.
func (c SearchCriteria) Validate(today Date) error {
	if strings.TrimSpace(c.Location) == "" {
		return ErrEmptyLocation
	}
	if c.CheckIn.Before(today) || c.CheckOut.Before(today) {
		return ErrDateInPast
	}
	if !c.CheckOut.After(c.CheckIn) {
		return ErrCheckOutBeforeCheckIn
	}
	if c.GuestCount < MinGuests || c.GuestCount > MaxGuests {
		return ErrGuestCount
	}
	return c.Price.Validate()
}

// Nights is the length of the stay.
func (c SearchCriteria) Nights() int {
	return int(c.CheckOut.Time().Sub(c.CheckIn.Time()).Hours() / 24)
}
