package models

// DirectoryRecord is a raw entry from the quality-certification directory.
// It only carries what the matcher needs to corroborate identity.
type DirectoryRecord struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Location Location `json:"location"`
}
