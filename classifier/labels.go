package classifier

import "strings"

type Intent string

const (
	IntentMedical  Intent = "medical"
	IntentGreeting Intent = "greeting"
	IntentGeneral  Intent = "general"
)

// ParseIntent maps free text onto an Intent. Anything unrecognized is general.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentMedical:
		return IntentMedical
	case IntentGreeting:
		return IntentGreeting
	default:
		return IntentGeneral
	}
}

type Department string

const (
	DepartmentCardiology  Department = "Cardiology"
	DepartmentNeurology   Department = "Neurology"
	DepartmentDermatology Department = "Dermatology"
	DepartmentOrthopedics Department = "Orthopedics"
	DepartmentGeneral     Department = "General"
)

// Departments is the complete, ordered enumeration.
var Departments = []Department{
	DepartmentCardiology,
	DepartmentNeurology,
	DepartmentDermatology,
	DepartmentOrthopedics,
	DepartmentGeneral,
}

// ParseDepartment matches s case-insensitively against Departments and
// defaults to General.
func ParseDepartment(s string) Department {
	s = strings.TrimSpace(s)
	for _, d := range Departments {
		if strings.EqualFold(s, string(d)) {
			return d
		}
	}
	return DepartmentGeneral
}
