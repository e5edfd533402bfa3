package scraper

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// MirrorFiles names the snapshot files a mirror serves. An empty path
// leaves the matching route unmounted.
type MirrorFiles struct {
	Certification string
	Directory     string
}

// MirrorHandler serves source snapshots at CertificationPath and
// DirectoryPath so that CertificationMirror and DirectoryMirror can read
// them. Files are read on every request and must hold a JSON array.
func MirrorHandler(files MirrorFiles) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	if files.Certification != "" {
		router.GET(CertificationPath, serveSnapshot(files.Certification))
	}
	if files.Directory != "" {
		router.GET(DirectoryPath, serveSnapshot(files.Directory))
	}
	return router
}

func serveSnapshot(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := os.ReadFile(path)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read snapshot: " + err.Error()})
			return
		}
		var records []json.RawMessage
		if err := json.Unmarshal(b, &records); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot is not a JSON array: " + err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", b)
	}
}

// WriteSourceSnapshot writes records as an indented JSON array, the format
// MirrorHandler and the file sources read.
func WriteSourceSnapshot(path string, records any) error {
	b, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
