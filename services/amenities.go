package services

import (
	"strings"

	"airbnb-bot/models"
)

// amenityVariations lists the spellings providers use for each wizard key.
var amenityVariations = map[models.AmenityKey][]string{
	models.AmenityWifi:      {"wifi", "wireless internet", "internet"},
	models.AmenityKitchen:   {"kitchen", "kitchenette"},
	models.AmenityWasher:    {"washer", "washing machine"},
	models.AmenityDryer:     {"dryer", "clothes dryer"},
	models.AmenityAC:        {"air conditioning", "ac", "air-conditioning"},
	models.AmenityHeating:   {"heating", "heater"},
	models.AmenityTV:        {"tv", "television", "cable tv"},
	models.AmenityPool:      {"pool", "swimming pool"},
	models.AmenityGym:       {"gym", "fitness"},
	models.AmenityParking:   {"free parking", "parking"},
	models.AmenityWorkspace: {"workspace", "dedicated workspace", "laptop friendly"},
	models.AmenityPets:      {"pets allowed", "pet friendly", "pets"},
}

// HasAmenities reports whether the listing offers every required amenity.
// Matching is case-insensitive and accepts either side containing the other.
func HasAmenities(listingAmenities []string, required models.AmenitySet) bool {
	if required.Len() == 0 {
		return true
	}
	have := make([]string, len(listingAmenities))
	for i, a := range listingAmenities {
		have[i] = strings.ToLower(a)
	}
	for _, key := range required.Keys() {
		if !offers(have, key) {
			return false
		}
	}
	return true
}

func offers(have []string, key models.AmenityKey) bool {
	variations, ok := amenityVariations[key]
	if !ok {
		variations = []string{string(key)}
	}
	for _, v := range variations {
		for _, a := range have {
			if a == "" {
				continue
			}
			if strings.Contains(a, v) || strings.Contains(v, a) {
				return true
			}
		}
	}
	return false
}

// FilterAmenities keeps the listings that offer every required amenity.
func FilterAmenities(listings []*models.Listing, required models.AmenitySet) []*models.Listing {
	if required.Len() == 0 {
		return listings
	}
	kept := listings[:0:0]
	for _, l := range listings {
		if HasAmenities(l.Amenities, required) {
			kept = append(kept, l)
		}
	}
	return kept
}
