// Package normalize turns raw records from both sources into comparable keys.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bibhub/pkg/models"
)

// SourceKind selects the phone convention of a source.
type SourceKind int

const (
	// Certification is the guide awarding distinctions. Its phones carry an
	// international prefix ("+33 ") that is replaced by a leading zero.
	Certification SourceKind = iota
	// Directory is the quality-certification directory. Its phones are
	// already in national format.
	Directory
)

func (k SourceKind) String() string {
	switch k {
	case Certification:
		return "certification"
	case Directory:
		return "directory"
	default:
		return "unknown"
	}
}

// certificationPrefixLen is the width of the international prefix dropped
// from certification phones, in characters.
const certificationPrefixLen = 4

// Key is the comparable form of a record. It is never persisted.
type Key struct {
	Name    string
	Phone   string
	Address string
}

// ForSource builds the key of a record coming from the given source.
func ForSource(kind SourceKind, name, phone string, loc models.Location) Key {
	k := Key{
		Name:    Text(name),
		Address: Address(loc),
	}
	switch kind {
	case Certification:
		k.Phone = CertificationPhone(phone)
	default:
		k.Phone = DirectoryPhone(phone)
	}
	return k
}

func CertificationKey(r models.Restaurant) Key {
	return ForSource(Certification, r.Name, r.Phone, r.Location)
}

func DirectoryKey(r models.DirectoryRecord) Key {
	return ForSource(Directory, r.Name, r.Phone, r.Location)
}

// Text lowercases s and removes every whitespace rune, including the ones
// inside the string.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = cases.Lower(language.Und).String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}

// Address concatenates town, street and zip code, each passed through Text,
// without separator.
func Address(loc models.Location) string {
	return Text(loc.Town) + Text(loc.Street) + Text(loc.ZipCode)
}

// CertificationPhone drops the first four characters and prepends "0".
// "+33 1 42 65 15 16" becomes "01 42 65 15 16". Inner whitespace is kept so
// the result compares equal to directory phones written the same way.
// An empty or short phone yields "0".
func CertificationPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= certificationPrefixLen {
		return "0"
	}
	return "0" + string(r[certificationPrefixLen:])
}

// DirectoryPhone only trims surrounding whitespace.
func DirectoryPhone(phone string) string {
	return strings.TrimSpace(phone)
}
