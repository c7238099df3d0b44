package cotation

import (
	"tripcost/core/determinism"
	"tripcost/core/types"
)

// FingerprintVersion namespaces input fingerprints
const FingerprintVersion = "tripcost/cotation/v1"

// profileInputs is the part of a profile that affects pricing
type profileInputs struct {
	Mode          types.ProfileMode  `json:"mode"`
	MinPax        int                `json:"min_pax"`
	MaxPax        int                `json:"max_pax"`
	RangeCategory types.CategoryCode `json:"range_category"`
	StaffRules    []types.StaffRule  `json:"staff_rules"`
	Composition   types.Composition  `json:"composition"`
	Selections    map[string]string  `json:"selections"`
	RoomDemand    *types.RoomDemand  `json:"room_demand"`
}

// Fingerprint hashes every input that affects the grid. Callers compare it
// with a cotation's stored fingerprint to detect staleness.
func Fingerprint(in Input) (string, error) {
	var profile profileInputs
	if p := in.Profile; p != nil {
		profile = profileInputs{
			Mode:          p.Mode,
			MinPax:        p.MinPax,
			MaxPax:        p.MaxPax,
			RangeCategory: p.RangeCategory,
			StaffRules:    p.StaffRules,
			Composition:   p.Composition,
			Selections:    p.Selections,
			RoomDemand:    p.RoomDemand,
		}
	}
	return determinism.Fingerprint(FingerprintVersion, in.Trip, in.Catalog, profile, in.Rates)
}
