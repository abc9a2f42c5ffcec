package models

// Allegiance is the faction a player currently belongs to.
type Allegiance string

const (
	AllegianceUndeclared Allegiance = "undeclared"
	AllegianceResistance Allegiance = "resistance" // human
	AllegianceHorde      Allegiance = "horde"      // zombie
)

func (a Allegiance) Valid() bool {
	switch a {
	case AllegianceUndeclared, AllegianceResistance, AllegianceHorde:
		return true
	}
	return false
}

// AllegianceFilter restricts which allegiance may belong to a group.
type AllegianceFilter string

const (
	FilterNone       AllegianceFilter = "none"
	FilterResistance AllegianceFilter = "resistance"
	FilterHorde      AllegianceFilter = "horde"
)

func (f AllegianceFilter) Valid() bool {
	switch f {
	case FilterNone, FilterResistance, FilterHorde:
		return true
	}
	return false
}

// Admits reports whether a player with allegiance a satisfies the filter.
// The empty filter is treated as none.
func (f AllegianceFilter) Admits(a Allegiance) bool {
	if f == FilterNone || f == "" {
		return true
	}
	return string(f) == string(a)
}

// Restricts reports whether the filter excludes anybody at all.
func (f AllegianceFilter) Restricts() bool {
	return f != FilterNone && f != ""
}
