package service_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geovolt/geophygis/internal/config"
	st "github.com/geovolt/geophygis/internal/store"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// runTime renders as the stamp "(0105_101500)".
var runTime = time.Date(2021, 5, 1, 10, 15, 0, 0, time.UTC)

func clock() time.Time { return runTime }

// wennerData is a Wenner array with spacing 5 and electrodes 0..15.
const wennerData = "%s survey\n5\n1\n4\n1\n0\n0\t5\t1\t100.1\n5\t5\t1\t101.2\n10\t5\t1\t99.8\n15\t5\t1\t98.0\n0\n0\n0\n0\n0\n"

type collector struct {
	features []*geojson.Feature
}

func (c *collector) Add(f *geojson.Feature) {
	c.features = append(c.features, f)
}

func surveyDir(name string) string {
	dir := filepath.Join(GinkgoT().TempDir(), name)
	Expect(os.Mkdir(dir, 0755)).To(Succeed())
	return dir
}

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	return path
}

func readLines(path string) []string {
	data, err := os.ReadFile(path)
	Expect(err).ToNot(HaveOccurred())
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func point(id string, distance, elevation float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{distance, 0})
	f.Properties["ID"] = id
	f.Properties["distance"] = distance
	f.Properties["DEM_1"] = elevation
	return f
}

func line(id string, coords ...orb.Point) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString(coords))
	f.Properties["ID"] = id
	return f
}

func headerLines(values map[int]string) string {
	lines := make([]string, 25)
	for i, v := range values {
		lines[i] = v
	}
	return strings.Join(lines, "\n") + "\n"
}

func memoryStore() st.Store {
	cfg, err := config.NewDefault()
	Expect(err).ToNot(HaveOccurred())
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = ":memory:"

	db, err := st.InitDB(cfg)
	Expect(err).ToNot(HaveOccurred())
	s := st.NewStore(db)
	Expect(s.InitialMigration()).To(Succeed())
	DeferCleanup(s.Close)
	return s
}
