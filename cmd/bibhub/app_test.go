package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibhub/internal/config"
	"bibhub/internal/scraper"
	"bibhub/internal/store"
	"bibhub/pkg/models"
)

// fixture writes both source snapshots and a config file using them with a
// JSON corpus store. It returns the config path and the corpus path.
func fixture(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	certs := []models.Restaurant{
		{Name: "Le Bistrot", Phone: "+33 1 02 03 04 05", Location: models.Location{Street: "1 rue A", Town: "Paris", ZipCode: "75001"},
			Distinction: models.Distinction{Type: models.DistinctionBibGourmand}, CookingType: "Moderne", Price: models.Price{Bottom: 20, Top: 40}},
		{Name: "La Table", Location: models.Location{Street: "2 rue B", Town: "Lyon", ZipCode: "69001"},
			Distinction: models.Distinction{Type: models.DistinctionOneStar}, CookingType: "Classique"},
		{Name: "Inconnu", Location: models.Location{Street: "3 rue C", Town: "Nice", ZipCode: "06000"},
			Distinction: models.Distinction{Type: models.DistinctionBibGourmand}},
	}
	dirs := []models.DirectoryRecord{
		{Name: "le bistrot", Phone: "01 02 03 04 05", Location: models.Location{Street: "ailleurs", Town: "Paris", ZipCode: "75002"}},
		{Name: "LA TABLE", Location: models.Location{Street: "2 rue B", Town: "Lyon", ZipCode: "69001"}},
	}
	certPath := filepath.Join(dir, "certification.json")
	dirPath := filepath.Join(dir, "directory.json")
	require.NoError(t, scraper.WriteSourceSnapshot(certPath, certs))
	require.NoError(t, scraper.WriteSourceSnapshot(dirPath, dirs))

	corpus := filepath.Join(dir, "corpus.json")
	cfg := fmt.Sprintf(`db:
  driver: json
  path: %s
sources:
  certification:
    file: %s
  directory:
    file: %s
log:
  level: error
  format: json
`, corpus, certPath, dirPath)
	cfgPath := filepath.Join(dir, "bibhub.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, corpus
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	root := a.rootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPipelineThenQueryAndExport(t *testing.T) {
	cfgPath, corpus := fixture(t)

	out, err := run(t, "--config", cfgPath, "pipeline", "--bib-only")
	require.NoError(t, err)
	assert.Contains(t, out, "3 certification, 2 directory, 2 golden, 0 geocoded")
	assert.Contains(t, out, "1 BIB_GOURMAND restaurants")

	raw, err := os.ReadFile(corpus)
	require.NoError(t, err)
	var stored []models.Restaurant
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, "Le Bistrot", stored[0].Name)
	assert.Nil(t, stored[0].Coordinates)

	out, err = run(t, "--config", cfgPath, "query", "--local", "--json", "-d", models.DistinctionOneStar)
	require.NoError(t, err)
	var found []models.Restaurant
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "La Table", found[0].Name)

	out, err = run(t, "--config", cfgPath, "export", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Le Bistrot")
	assert.Contains(t, out, "La Table")
}

func TestImportReplacesCorpus(t *testing.T) {
	cfgPath, corpus := fixture(t)

	snapshot := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(snapshot, []byte(`[
    {"id": 7, "name": "Importé", "phone": "", "location": {"street": "", "town": "Lille", "zipCode": "59000"},
     "distinction": {"type": "BIB_GOURMAND", "description": ""}, "price": {"bottom": 0, "top": 0},
     "rating": 0, "numberVotes": 0, "cookingType": "", "coordinates": null}
]`), 0o644))

	_, err := run(t, "--config", cfgPath, "import", snapshot)
	require.NoError(t, err)

	raw, err := os.ReadFile(corpus)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Importé")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id": "seven"}]`), 0o644))
	_, err = run(t, "--config", cfgPath, "import", bad)
	assert.Error(t, err)
}

func TestQueryRejectsInvalidRequest(t *testing.T) {
	cfgPath, _ := fixture(t)

	_, err := run(t, "--config", cfgPath, "query", "--local", "--sort", "distance")
	assert.Error(t, err)
}

func TestBuildSources(t *testing.T) {
	_, err := buildSources(config.SourcesConfig{})
	assert.Error(t, err)

	_, err = buildSources(config.SourcesConfig{
		Certification: config.SourceConfig{File: "cert.json"},
	})
	assert.Error(t, err, "directory source missing")

	agg, err := buildSources(config.SourcesConfig{
		Certification: config.SourceConfig{URL: "http://localhost:9000", File: "cert.json"},
		Directory:     config.SourceConfig{URL: "http://localhost:9000"},
	})
	require.NoError(t, err)
	assert.Len(t, agg.Certification, 2)
	assert.Len(t, agg.Directory, 1)
}

func TestBuildSources_ProfileKindMismatch(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`name: quality-directory
kind: directory
url: "https://example.test/list?page={page}"
item: "div.item"
fields:
  name:
    selector: "h2"
`), 0o644))

	_, err := buildSources(config.SourcesConfig{
		Certification: config.SourceConfig{Profile: profile},
		Directory:     config.SourceConfig{Profile: profile},
	})
	assert.ErrorContains(t, err, "does not describe a certification source")
}

func TestBuildGeocoder(t *testing.T) {
	assert.Nil(t, buildGeocoder(config.GeocodeConfig{}))
	assert.NotNil(t, buildGeocoder(config.GeocodeConfig{APIKey: "k", BaseURL: "http://localhost"}))
}

func TestBuildRunner_FetchTimeoutFromConfig(t *testing.T) {
	cfgPath, _ := fixture(t)
	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	r, err := buildRunner(cfg, store.NewMemory(), nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.Sources.FetchTimeout, r.SourceTimeout)

	cfg.Sources.FetchTimeout = 42 * time.Second
	r, err = buildRunner(cfg, store.NewMemory(), nil)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, r.SourceTimeout)
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, []byte(`{"type":"welcome"}`), true)
	printEvent(&buf, []byte(`not json`), true)
	printEvent(&buf, []byte(`{"type":"x"}`), false)

	assert.Equal(t, "{\n  \"type\": \"welcome\"\n}\nnot json\n{\"type\":\"x\"}\n", buf.String())
}
