// Package matcher cross-matches certification records against the directory
// and keeps the ones both sources agree on: the golden records.
package matcher

import (
	"github.com/rs/zerolog"

	"bibhub/internal/logging"
	"bibhub/internal/normalize"
	"bibhub/internal/similarity"
	"bibhub/pkg/models"
)

// Default policy thresholds.
const (
	DefaultNameThreshold    = 0.9
	DefaultPhoneThreshold   = 1.0
	DefaultAddressThreshold = 0.7
)

// Thresholds are the minimum similarity scores of the match predicate:
//
//	name >= Name AND (phone >= Phone OR address >= Address)
type Thresholds struct {
	Name    float64 `mapstructure:"name" validate:"gte=0,lte=1"`
	Phone   float64 `mapstructure:"phone" validate:"gte=0,lte=1"`
	Address float64 `mapstructure:"address" validate:"gte=0,lte=1"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Name:    DefaultNameThreshold,
		Phone:   DefaultPhoneThreshold,
		Address: DefaultAddressThreshold,
	}
}

type Matcher struct {
	Thresholds Thresholds
	// Logger receives one debug event per accepted pairing.
	Logger zerolog.Logger
}

func New(t Thresholds) *Matcher {
	return &Matcher{Thresholds: t, Logger: logging.Component("matcher")}
}

// Matches reports whether a certification key and a directory key describe
// the same restaurant.
func (m *Matcher) Matches(cert, dir normalize.Key) bool {
	if similarity.Similarity(cert.Name, dir.Name) < m.Thresholds.Name {
		return false
	}
	return similarity.Similarity(cert.Phone, dir.Phone) >= m.Thresholds.Phone ||
		similarity.Similarity(cert.Address, dir.Address) >= m.Thresholds.Address
}

// Match returns the golden records: every certification record for which at
// least one directory record satisfies the predicate, in certification order.
//
// The directory is scanned in its original order and the first qualifying
// record wins; no attempt is made to find the best one. Accepted records get
// sequential ids starting at 1. The inputs are not modified.
func (m *Matcher) Match(certs []models.Restaurant, dirs []models.DirectoryRecord) []models.Restaurant {
	dirKeys := make([]normalize.Key, len(dirs))
	for i, d := range dirs {
		dirKeys[i] = normalize.DirectoryKey(d)
	}

	golden := make([]models.Restaurant, 0)
	nextID := 1
	for _, c := range certs {
		j := m.firstMatch(normalize.CertificationKey(c), dirKeys)
		if j < 0 {
			continue
		}
		c.ID = nextID
		nextID++
		golden = append(golden, c)
		m.Logger.Debug().
			Int("id", c.ID).
			Str("name", c.Name).
			Int("directory_index", j).
			Str("directory_name", dirs[j].Name).
			Msg("paired")
	}
	return golden
}

// firstMatch returns the index of the first directory key matching cert, or
// -1.
func (m *Matcher) firstMatch(cert normalize.Key, dirKeys []normalize.Key) int {
	for i, dk := range dirKeys {
		if m.Matches(cert, dk) {
			return i
		}
	}
	return -1
}
