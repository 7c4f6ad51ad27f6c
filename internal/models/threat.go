package models

import "sort"

// Category is a STRIDE threat category
type Category string

const (
	Spoofing              Category = "spoofing"
	Tampering             Category = "tampering"
	Repudiation           Category = "repudiation"
	InformationDisclosure Category = "information_disclosure"
	DenialOfService       Category = "denial_of_service"
	ElevationOfPrivilege  Category = "elevation_of_privilege"
)

// AllCategories returns the six STRIDE categories in STRIDE order
func AllCategories() []Category {
	return []Category{
		Spoofing,
		Tampering,
		Repudiation,
		InformationDisclosure,
		DenialOfService,
		ElevationOfPrivilege,
	}
}

// Valid returns true if c is one of the six STRIDE categories
func (c Category) Valid() bool {
	switch c {
	case Spoofing, Tampering, Repudiation, InformationDisclosure, DenialOfService, ElevationOfPrivilege:
		return true
	}
	return false
}

// Title returns a display name such as "Information Disclosure"
func (c Category) Title() string {
	switch c {
	case Spoofing:
		return "Spoofing"
	case Tampering:
		return "Tampering"
	case Repudiation:
		return "Repudiation"
	case InformationDisclosure:
		return "Information Disclosure"
	case DenialOfService:
		return "Denial of Service"
	case ElevationOfPrivilege:
		return "Elevation of Privilege"
	default:
		return string(c)
	}
}

// Assignment holds the STRIDE categories and per-category scores for one entity
type Assignment struct {
	Stride []Category           `json:"stride" yaml:"stride"`
	Scores map[Category]float64 `json:"scores" yaml:"scores"`
}

// MaxScore returns the highest score in the assignment, or 0 if there are none
func (a Assignment) MaxScore() float64 {
	max := 0.0
	for _, s := range a.Scores {
		if s > max {
			max = s
		}
	}
	return max
}

// FlowAssignment is the threat assignment for a single flow
type FlowAssignment struct {
	Src        string `json:"src" yaml:"src"`
	Dst        string `json:"dst" yaml:"dst"`
	Assignment `yaml:",inline"`
}

// Flow returns the flow this assignment belongs to
func (f FlowAssignment) Flow() Flow {
	return Flow{Src: f.Src, Dst: f.Dst}
}

// ThreatModel aggregates the per-component and per-flow assignments of a run
type ThreatModel struct {
	Components map[string]Assignment `json:"components" yaml:"components"`
	Flows      []FlowAssignment      `json:"flows" yaml:"flows"`
}

// NewThreatModel returns an empty model whose collections serialize as {} and []
func NewThreatModel() *ThreatModel {
	return &ThreatModel{
		Components: make(map[string]Assignment),
		Flows:      make([]FlowAssignment, 0),
	}
}

// ComponentNames returns the component names in sorted order
func (m *ThreatModel) ComponentNames() []string {
	names := make([]string, 0, len(m.Components))
	for name := range m.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaxScore returns the highest score across all components and flows
func (m *ThreatModel) MaxScore() float64 {
	max := 0.0
	for _, a := range m.Components {
		if s := a.MaxScore(); s > max {
			max = s
		}
	}
	for _, f := range m.Flows {
		if s := f.MaxScore(); s > max {
			max = s
		}
	}
	return max
}

// CategoryCounts returns how many components and flows were assigned each category
func (m *ThreatModel) CategoryCounts() map[Category]int {
	counts := make(map[Category]int)
	for _, a := range m.Components {
		for _, c := range a.Stride {
			counts[c]++
		}
	}
	for _, f := range m.Flows {
		for _, c := range f.Stride {
			counts[c]++
		}
	}
	return counts
}
