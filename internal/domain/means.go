package domain

// MeansMode is the user's self-declared ability to pay. It decides whether the
// booking sheet creates a reservation or only acknowledges the visit.
type MeansMode string

const (
	MeansCanAfford    MeansMode = "can"
	MeansCannotAfford MeansMode = "cant"
)

var MeansModes = []MeansMode{MeansCanAfford, MeansCannotAfford}

func (m MeansMode) Label() string {
	switch m {
	case MeansCanAfford:
		return "I can afford it"
	case MeansCannotAfford:
		return "I can't afford it"
	default:
		return string(m)
	}
}

// Eligible reports whether the mode allows creating a booking record.
func (m MeansMode) Eligible() bool {
	return m == MeansCanAfford
}

func ParseMeansMode(value string) (MeansMode, bool) {
	for _, m := range MeansModes {
		if string(m) == value || m.Label() == value {
			return m, true
		}
	}
	return "", false
}
