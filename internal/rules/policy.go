package rules

// UnitTier caps the requested units for GPAs strictly below Below.
type UnitTier struct {
	Below float64
	Units int
}

// Policy holds the academic thresholds the checks apply.
type Policy struct {
	PassingGrade float64
	// Tiers must be sorted by ascending Below.
	Tiers    []UnitTier
	MaxUnits int
	// UnitsWithoutGPA caps students with an empty transcript.
	UnitsWithoutGPA int
	// IncludeCurrentTerm makes the duplicate, exam and unit checks also consider
	// registrations already committed in the current term.
	IncludeCurrentTerm bool
}

// DefaultPolicy returns the standard 0-20 grading policy.
func DefaultPolicy() Policy {
	return Policy{
		PassingGrade:    10,
		Tiers:           []UnitTier{{Below: 12, Units: 14}, {Below: 16, Units: 16}},
		MaxUnits:        20,
		UnitsWithoutGPA: 14,
	}
}

// UnitCap returns the maximum units allowed for the standing.
func (p Policy) UnitCap(s Standing) int {
	limit := p.MaxUnits
	if !s.Defined {
		if p.UnitsWithoutGPA > 0 && p.UnitsWithoutGPA < limit {
			return p.UnitsWithoutGPA
		}
		return limit
	}
	for _, tier := range p.Tiers {
		if s.GPA < tier.Below {
			if tier.Units < limit {
				return tier.Units
			}
			return limit
		}
	}
	return limit
}
