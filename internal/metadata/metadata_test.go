package metadata_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/geovolt/geophygis/internal/geometry"
	"github.com/geovolt/geophygis/internal/metadata"
	"github.com/geovolt/geophygis/pkg/survey"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/xuri/excelize/v2"
)

type collector struct {
	features []*geojson.Feature
}

func (c *collector) Add(f *geojson.Feature) {
	c.features = append(c.features, f)
}

func lineFeature(id string, coords ...orb.Point) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString(coords))
	f.Properties["ID"] = id
	return f
}

func records() []*survey.ProfileMetadata {
	wenner := survey.ArrayFileHeader{BaseSpacing: 5, ArrayType: survey.WennerAlpha, ProfileLength: 115}
	dd := survey.ArrayFileHeader{BaseSpacing: 2.5, ArrayType: survey.EquatorialDipoleDipole, ProfileLength: survey.UnknownLength}
	device := &survey.DeviceHeader{
		FieldLength: "120", Date: "12.05.2021", Time: "10:15:00",
		Device: "ARES-II", Operator: "J. Doe", Notes: "dry; windy",
	}
	return []*survey.ProfileMetadata{
		survey.NewProfileMetadata("P1", wenner, nil),
		survey.NewProfileMetadata("P2", dd, device),
	}
}

func table() *metadata.Table {
	var buf bytes.Buffer
	Expect(metadata.WriteCSV(&buf, records())).To(Succeed())
	t, err := metadata.ReadCSV(&buf)
	Expect(err).ToNot(HaveOccurred())
	return t
}

var _ = Describe("metadata table", func() {
	It("writes four fields without a device header and ten with one", func() {
		var buf bytes.Buffer
		Expect(metadata.WriteCSV(&buf, records())).To(Succeed())

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[0]).To(Equal("ID;LENGTH;SPACING;ARRAY;field_LENGTH;DATE;TIME;DEVICE;OPERATOR;NOTES"))
		Expect(lines[1]).To(Equal("P1;115;5;Wenner-Alpha"))
		Expect(lines[2]).To(Equal(`P2;-999;2.5;Equatorial dipole-dipole;120;12.05.2021;10:15:00;ARES-II;J. Doe;"dry; windy"`))
	})

	It("reads rows back with numeric length and spacing", func() {
		t := table()
		Expect(t.Len()).To(Equal(2))

		props, ok := t.Lookup("P2")
		Expect(ok).To(BeTrue())
		Expect(props).To(HaveKeyWithValue("LENGTH", -999.0))
		Expect(props).To(HaveKeyWithValue("SPACING", 2.5))
		Expect(props).To(HaveKeyWithValue("NOTES", "dry; windy"))
	})

	It("fills columns a short row does not carry with nil", func() {
		props, ok := table().Lookup("P1")
		Expect(ok).To(BeTrue())
		Expect(props).To(HaveKeyWithValue("ARRAY", "Wenner-Alpha"))
		Expect(props).To(HaveKey("OPERATOR"))
		Expect(props["OPERATOR"]).To(BeNil())
	})

	It("rejects a table without an ID column", func() {
		_, err := metadata.ReadCSV(strings.NewReader("NAME;LENGTH\nP1;10\n"))
		Expect(err).To(HaveOccurred())
		_, err = metadata.ReadCSV(strings.NewReader(""))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Merger", func() {
	var (
		sink   *collector
		merger *metadata.Merger
	)

	BeforeEach(func() {
		sink = &collector{}
		merger = metadata.NewMerger(table(), geometry.Planar)
	})

	It("joins metadata and derives the line attributes", func() {
		lines := []*geojson.Feature{
			lineFeature("P1", orb.Point{0, 0}, orb.Point{0, 100}),
			lineFeature("P2", orb.Point{0, 0}, orb.Point{50, 0}),
		}
		rows, stats, err := merger.Merge(context.Background(), lines, sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(stats).To(Equal(metadata.MergeStats{Lines: 2, Matched: 2}))
		Expect(sink.features).To(HaveLen(2))

		p1 := sink.features[0].Properties
		Expect(p1).To(HaveKeyWithValue("GIS_LENGTH", 100.0))
		Expect(p1).To(HaveKeyWithValue("LEN_ERR_[%]", 13.04))
		Expect(p1).To(HaveKeyWithValue("AZIM", 0))
		Expect(p1).To(HaveKeyWithValue("DIRECTION", "N"))

		p2 := sink.features[1].Properties
		Expect(p2).To(HaveKeyWithValue("AZIM", 90))
		Expect(p2).To(HaveKeyWithValue("DIRECTION", "E"))
		Expect(p2).To(HaveKey("LEN_ERR_[%]"))
		Expect(p2["LEN_ERR_[%]"]).To(BeNil())
		Expect(p2).To(HaveKeyWithValue("DEVICE", "ARES-II"))

		Expect(rows).To(Equal([]metadata.DocRow{
			{ID: "P1", GISLength: 100, Length: "115", Array: "Wenner-Alpha", Spacing: "5", Direction: "N"},
			{ID: "P2", GISLength: 50, Length: "-999", Array: "Equatorial dipole-dipole", Spacing: "2.5", Direction: "E"},
		}))
	})

	It("keeps lines without metadata", func() {
		lines := []*geojson.Feature{lineFeature("P9", orb.Point{0, 0}, orb.Point{-30, 0})}
		rows, stats, err := merger.Merge(context.Background(), lines, sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(stats.Unmatched).To(Equal(1))

		props := sink.features[0].Properties
		Expect(props).To(HaveKey("LENGTH"))
		Expect(props["LENGTH"]).To(BeNil())
		Expect(props).To(HaveKeyWithValue("LEN_ERR_[%]", BeNil()))
		Expect(props).To(HaveKeyWithValue("DIRECTION", "W"))
		Expect(rows[0].Length).To(BeEmpty())
	})

	It("labels the W/NW gap as err", func() {
		lines := []*geojson.Feature{lineFeature("P1", orb.Point{0, 0}, orb.Point{-92.05, 39.07})}
		_, _, err := merger.Merge(context.Background(), lines, sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.features[0].Properties).To(HaveKeyWithValue("AZIM", 293))
		Expect(sink.features[0].Properties).To(HaveKeyWithValue("DIRECTION", "err"))
	})

	It("labels degenerate lines as err", func() {
		lines := []*geojson.Feature{lineFeature("P1", orb.Point{5, 5}, orb.Point{5, 5})}
		_, _, err := merger.Merge(context.Background(), lines, sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(sink.features[0].Properties["AZIM"]).To(BeNil())
		Expect(sink.features[0].Properties).To(HaveKeyWithValue("DIRECTION", "err"))
	})

	It("does not modify the input features", func() {
		line := lineFeature("P1", orb.Point{0, 0}, orb.Point{0, 100})
		_, _, err := merger.Merge(context.Background(), []*geojson.Feature{line}, sink)
		Expect(err).ToNot(HaveOccurred())
		Expect(line.Properties).To(HaveLen(1))
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rows, _, err := merger.Merge(ctx, []*geojson.Feature{lineFeature("P1", orb.Point{0, 0}, orb.Point{0, 1})}, sink)
		Expect(err).To(MatchError(context.Canceled))
		Expect(rows).To(BeEmpty())
		Expect(sink.features).To(BeEmpty())
	})
})

var _ = Describe("docsheet", func() {
	rows := []metadata.DocRow{
		{ID: "P1", GISLength: 100, Length: "115", Array: "Wenner-Alpha", Spacing: "5", Direction: "N"},
		{ID: "P2", GISLength: 49.87, Length: "", Array: "", Spacing: "", Direction: "err"},
	}

	It("writes tab separated text", func() {
		var buf bytes.Buffer
		Expect(metadata.WriteDocsheet(&buf, rows)).To(Succeed())
		Expect(buf.String()).To(Equal(
			"ID\tGIS_LENGTH\tLENGTH\tARRAY\tSPACING\tDIRECTION\n" +
				"P1\t100.0\t115\tWenner-Alpha\t5\tN\n" +
				"P2\t49.87\t\t\t\terr\n"))
	})

	It("writes the same rows to a workbook", func() {
		path := filepath.Join(GinkgoT().TempDir(), "doc.xlsx")
		Expect(metadata.WriteWorkbook(path, rows)).To(Succeed())

		f, err := excelize.OpenFile(path)
		Expect(err).ToNot(HaveOccurred())
		defer f.Close()

		got, err := f.GetRows("docsheet")
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(HaveLen(3))
		Expect(got[0]).To(Equal([]string{"ID", "GIS_LENGTH", "LENGTH", "ARRAY", "SPACING", "DIRECTION"}))
		Expect(got[1][0]).To(Equal("P1"))
		Expect(got[1][5]).To(Equal("N"))
	})
})
