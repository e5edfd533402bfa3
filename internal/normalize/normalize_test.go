package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bibhub/pkg/models"
)

func TestText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Le Bistrot", "lebistrot"},
		{"  LE   BISTROT  ", "lebistrot"},
		{"Café de la Gare", "cafédelagare"},
		{"L'Étoile\tdu\nNord", "l'étoiledunord"},
		{"75001", "75001"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Text(tt.in), "Text(%q)", tt.in)
	}
}

func TestAddress(t *testing.T) {
	loc := models.Location{Street: "1 Rue A", Town: "Paris", ZipCode: "75001"}
	assert.Equal(t, "paris1ruea75001", Address(loc))
	assert.Equal(t, "", Address(models.Location{}))
}

func TestCertificationPhone(t *testing.T) {
	assert.Equal(t, "0102030405", CertificationPhone("XXXX102030405"))
	assert.Equal(t, "01 42 65 15 16", CertificationPhone("+33 1 42 65 15 16"))
	assert.Equal(t, "0", CertificationPhone(""))
	assert.Equal(t, "0", CertificationPhone("+33"))
	assert.Equal(t, "0", CertificationPhone("+33 "))
}

func TestDirectoryPhone(t *testing.T) {
	assert.Equal(t, "01 42 65 15 16", DirectoryPhone("  01 42 65 15 16 "))
	assert.Equal(t, "+33 1 42", DirectoryPhone("+33 1 42"))
	assert.Equal(t, "", DirectoryPhone(""))
}

func TestForSource(t *testing.T) {
	loc := models.Location{Street: "1 Rue A", Town: "Paris", ZipCode: "75001"}

	cert := ForSource(Certification, "Le Bistrot", "XXXX0102030405", loc)
	assert.Equal(t, Key{Name: "lebistrot", Phone: "00102030405", Address: "paris1ruea75001"}, cert)

	dir := ForSource(Directory, " LE BISTROT ", " 0102030405 ", loc)
	assert.Equal(t, Key{Name: "lebistrot", Phone: "0102030405", Address: "paris1ruea75001"}, dir)
}

func TestKeys_MissingFields(t *testing.T) {
	assert.Equal(t, Key{Phone: "0"}, CertificationKey(models.Restaurant{}))
	assert.Equal(t, Key{}, DirectoryKey(models.DirectoryRecord{}))
}

func TestSourceKindString(t *testing.T) {
	assert.Equal(t, "certification", Certification.String())
	assert.Equal(t, "directory", Directory.String())
	assert.Equal(t, "unknown", SourceKind(9).String())
}
