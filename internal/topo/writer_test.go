package topo_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/geovolt/geophygis/internal/instrument"
	"github.com/geovolt/geophygis/internal/profile"
	"github.com/geovolt/geophygis/internal/topo"
	"github.com/geovolt/geophygis/pkg/survey"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const sourceData = "P1 survey\n5\n1\n4\n1\n0\n0\t5\t1\t100.1\n5\t5\t1\t101.2\n10\t5\t1\t99.8\n15\t5\t1\t98.0\n0\n0\n0\n0\n0\n"

func footer(content string) (header []string, count int, rows [][2]float64, terminators int) {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	marker := -1
	for i, l := range lines {
		if l == "2" {
			marker = i
		}
	}
	Expect(marker).To(BeNumerically(">", 0))
	header = lines[:marker]
	count, err := strconv.Atoi(lines[marker+1])
	Expect(err).ToNot(HaveOccurred())
	for _, l := range lines[marker+2 : marker+2+count] {
		dist, elev, ok := strings.Cut(l, "\t")
		Expect(ok).To(BeTrue())
		d, err := strconv.ParseFloat(dist, 64)
		Expect(err).ToNot(HaveOccurred())
		e, err := strconv.ParseFloat(elev, 64)
		Expect(err).ToNot(HaveOccurred())
		rows = append(rows, [2]float64{d, e})
	}
	for _, l := range lines[marker+2+count:] {
		Expect(l).To(Equal("0"))
		terminators++
	}
	return header, count, rows, terminators
}

var _ = Describe("Writer", func() {
	var (
		sourceDir string
		outputDir string
		aggregate *bytes.Buffer
		writer    *topo.Writer
		prof      survey.Profile
	)

	BeforeEach(func() {
		sourceDir = GinkgoT().TempDir()
		outputDir = GinkgoT().TempDir()
		aggregate = &bytes.Buffer{}
		writer = topo.NewWriter(sourceDir, outputDir, aggregate)
		prof = survey.Profile{ID: "P1", Records: []survey.PointRecord{
			{ProfileID: "P1", Distance: 0, Elevation: 210.25},
			{ProfileID: "P1", Distance: 50, Elevation: 211.5},
			{ProfileID: "P1", Distance: 100, Elevation: 212.12345},
		}}
		Expect(os.WriteFile(filepath.Join(sourceDir, "P1.dat"), []byte(sourceData), 0644)).To(Succeed())
	})

	It("appends the topography footer after the original lines", func() {
		path, err := writer.Write(prof)
		Expect(err).ToNot(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(outputDir, "P1_topo.dat")))

		data, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal(
			"P1 survey\n5\n1\n4\n1\n0\n0\t5\t1\t100.1\n5\t5\t1\t101.2\n10\t5\t1\t99.8\n15\t5\t1\t98.0\n" +
				"2\n3\n0.0\t210.25\n50.0\t211.5\n100.0\t212.123\n0\n0\n0\n0\n0\n"))
	})

	It("mirrors the topography into the aggregate log", func() {
		_, err := writer.Write(prof)
		Expect(err).ToNot(HaveOccurred())
		Expect(aggregate.String()).To(Equal("TOPO of:P1\n0.0\t210.25\n50.0\t211.5\n100.0\t212.123\n###\n"))
	})

	It("reports a missing source file without writing anything", func() {
		prof.ID = "P404"
		_, err := writer.Write(prof)
		Expect(err).To(MatchError(os.ErrNotExist))
		Expect(aggregate.Len()).To(BeZero())
		_, statErr := os.Stat(filepath.Join(outputDir, "P404_topo.dat"))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	DescribeTable("rejects profile IDs that leave the survey directories",
		func(id string) {
			prof.ID = id
			_, err := writer.Write(prof)
			Expect(err).To(MatchError(topo.ErrInvalidProfileID))
			Expect(aggregate.Len()).To(BeZero())
			_, err = writer.SourcePath(id)
			Expect(err).To(MatchError(topo.ErrInvalidProfileID))
		},
		Entry("parent reference", "../x"),
		Entry("nested path", "sub/P1"),
		Entry("absolute path", "/tmp/P1"),
		Entry("backslash", `..\x`),
		Entry("bare dots", ".."),
		Entry("empty", ""),
	)

	It("round-trips parsed array files with unsmoothed topography", func() {
		src, err := writer.SourcePath("P1")
		Expect(err).ToNot(HaveOccurred())
		header, err := instrument.ParseArrayFile(src)
		Expect(err).ToNot(HaveOccurred())
		Expect(header.ProfileLength).To(Equal(30.0))

		records := make([]survey.PointRecord, 0, 6)
		for i := 0; i < 6; i++ {
			records = append(records, survey.PointRecord{ProfileID: "P1", Distance: float64(i) * 5, Elevation: 200 + float64(i)*0.5})
		}
		identity, w := profile.SmoothProfile(survey.Profile{ID: "P1", Records: records}, 0)
		Expect(w.Effective).To(BeZero())

		path, err := writer.Write(identity)
		Expect(err).ToNot(HaveOccurred())
		data, err := os.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())

		head, count, rows, terminators := footer(string(data))
		Expect(head).To(HaveLen(10))
		Expect(count).To(Equal(len(records)))
		Expect(terminators).To(Equal(5))
		for i, r := range records {
			Expect(rows[i]).To(Equal([2]float64{r.Distance, r.Elevation}))
		}
	})
})

var _ = Describe("StripTerminators", func() {
	It("drops only the trailing zero lines", func() {
		Expect(topo.StripTerminators([]byte("a\n0\nb\n0\n 0 \n0\r\n"))).To(Equal([]string{"a", "0", "b"}))
	})

	It("keeps files without terminators intact", func() {
		Expect(topo.StripTerminators([]byte("a\nb"))).To(Equal([]string{"a", "b"}))
	})

	It("handles files made only of terminators", func() {
		Expect(topo.StripTerminators([]byte("0\n0\n"))).To(BeEmpty())
	})
})

var _ = Describe("ProfileID", func() {
	It("strips the directory and the topography suffix", func() {
		Expect(topo.ProfileID(filepath.Join("/run", "TOPO_(0105_101500)", "P-7_topo.dat"))).To(Equal("P-7"))
	})
})
