package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geovolt/geophygis/internal/extract"
	"github.com/geovolt/geophygis/internal/service"
	"github.com/geovolt/geophygis/internal/store/model"
	"github.com/geovolt/geophygis/internal/topo"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/paulmach/orb/geojson"
)

var _ = Describe("ExportService", func() {
	var (
		parent    string
		workspace string
		sink      *collector
		features  []*geojson.Feature
	)

	BeforeEach(func() {
		parent = surveyDir("site1")
		workspace = filepath.Join(parent, "TOPO_(0105_101500)")
		sink = &collector{}

		writeFile(parent, "P1.dat", fmt.Sprintf(wennerData, "P1"))
		writeFile(parent, "P3.dat", "P3 survey\n5\n1\n")

		features = []*geojson.Feature{
			point("P1", 10, 99.5),
			point("P1", 0, 100.0),
			point("P2", 0, 50.0),
			point("P1", 5, 101.25),
			point("P3", 0, 70.0),
			point("P1", 15, -9999),
			point("P2", 5, 51.0),
			point("P1", 15, 98.0),
		}
	})

	newService := func() *service.ExportService {
		return service.NewExportService(nil, extract.Options{}, "").WithClock(clock)
	}

	It("writes topography files and reports missing and malformed sources", func() {
		summary, err := newService().Export(context.TODO(), service.ExportRequest{
			ParentDir: parent,
			Features:  features,
			Sink:      sink,
		})
		Expect(err).ToNot(HaveOccurred())

		Expect(summary.Workspace).To(Equal(workspace))
		Expect(summary.Features).To(Equal(8))
		Expect(summary.Profiles).To(Equal(3))
		Expect(summary.Outputs).To(Equal([]string{filepath.Join(workspace, "P1_topo.dat")}))
		Expect(sink.features).To(HaveLen(8))

		Expect(summary.Errors).To(HaveLen(2))
		Expect(summary.Errors[0].ProfileID).To(Equal("P2"))
		Expect(summary.Errors[0].Kind).To(Equal(service.FileNotFound))
		Expect(summary.Errors[1].ProfileID).To(Equal("P3"))
		Expect(summary.Errors[1].Kind).To(Equal(service.ParseError))
		Expect(summary.Failed()).To(Equal([]string{"P2", "P3"}))

		var notFound *service.ErrProfileNotFound
		Expect(errors.As(summary.Errors[0], &notFound)).To(BeTrue())
		Expect(errors.Is(summary.Errors[0], os.ErrNotExist)).To(BeTrue())
		var parseErr *service.ErrProfileParse
		Expect(errors.As(summary.Errors[1], &parseErr)).To(BeTrue())

		Expect(readLines(filepath.Join(workspace, "site1.attab"))).To(HaveLen(7))
		Expect(readLines(filepath.Join(workspace, "site1.top"))).To(Equal([]string{
			"TOPO of:P1", "0.0\t100.0", "5.0\t101.25", "10.0\t99.5", "15.0\t98.0", "###",
		}))

		topoLines := readLines(filepath.Join(workspace, "P1_topo.dat"))
		Expect(topoLines[len(topoLines)-11:]).To(Equal([]string{
			"2", "4", "0.0\t100.0", "5.0\t101.25", "10.0\t99.5", "15.0\t98.0", "0", "0", "0", "0", "0",
		}))
	})

	It("skips profiles whose ID would leave the survey directories", func() {
		writeFile(filepath.Dir(parent), "outside.dat", fmt.Sprintf(wennerData, "outside"))
		features = append(features, point("../outside", 0, 60.0), point("../outside", 5, 61.0))

		summary, err := newService().Export(context.TODO(), service.ExportRequest{
			ParentDir: parent,
			Features:  features,
			Sink:      sink,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(summary.Outputs).To(Equal([]string{filepath.Join(workspace, "P1_topo.dat")}))

		Expect(summary.Failed()).To(ContainElement("../outside"))
		for _, e := range summary.Errors {
			if e.ProfileID == "../outside" {
				Expect(e.Kind).To(Equal(service.ParseError))
				Expect(errors.Is(e, topo.ErrInvalidProfileID)).To(BeTrue())
			}
		}
		_, statErr := os.Stat(filepath.Join(parent, "outside_topo.dat"))
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("writes batch descriptors when a parameter file is given", func() {
		summary, err := newService().Export(context.TODO(), service.ExportRequest{
			ParentDir:     parent,
			Features:      features,
			Sink:          sink,
			ParameterPath: "/params/default.ivp",
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(summary.Batches).To(Equal(1))

		bth := filepath.Join(workspace, "site1_1.bth")
		Expect(summary.Outputs).To(ContainElement(bth))
		Expect(readLines(bth)).To(Equal([]string{
			"1",
			"INVERSION PARAMETERS FILES USED",
			"DATA FILE 1",
			filepath.Join(workspace, "P1_topo.dat"),
			filepath.Join(workspace, "P1_topo.inv"),
			"/params/default.ivp",
		}))
	})

	It("reports windows reduced to fit a profile", func() {
		summary, err := newService().Export(context.TODO(), service.ExportRequest{
			ParentDir: parent,
			Features:  features,
			Sink:      sink,
			Window:    5,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(summary.Adjusted).To(HaveLen(1))
		Expect(summary.Adjusted[0].ProfileID).To(Equal("P1"))
		Expect(summary.Adjusted[0].Window.Effective).To(Equal(3))

		// half = 1: the endpoints stay raw, the interior takes 3-point means
		Expect(readLines(filepath.Join(workspace, "site1.top"))).To(Equal([]string{
			"TOPO of:P1", "0.0\t100.0", "5.0\t100.25", "10.0\t99.58", "15.0\t98.0", "###",
		}))
	})

	It("runs the inversion tool on every batch file", func() {
		calls := filepath.Join(GinkgoT().TempDir(), "calls")
		tool := writeFile(GinkgoT().TempDir(), "invert.sh", "#!/bin/sh\necho \"$1\" >> "+calls+"\n")
		Expect(os.Chmod(tool, 0755)).To(Succeed())

		summary, err := service.NewExportService(nil, extract.Options{}, tool).WithClock(clock).Export(context.TODO(), service.ExportRequest{
			ParentDir:     parent,
			Features:      features,
			Sink:          sink,
			ParameterPath: "/params/default.ivp",
			Invert:        true,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(summary.InversionFailures).To(Equal(0))
		Expect(readLines(calls)).To(Equal([]string{filepath.Join(workspace, "site1_1.bth")}))
	})

	It("refuses inversion without a configured tool", func() {
		_, err := newService().Export(context.TODO(), service.ExportRequest{ParentDir: parent, Sink: sink, Invert: true})
		Expect(err).To(HaveOccurred())
	})

	It("fails on an unusable parent directory", func() {
		_, err := newService().Export(context.TODO(), service.ExportRequest{
			ParentDir: filepath.Join(parent, "missing"),
			Sink:      sink,
		})
		var dirErr *service.ErrInvalidParentDir
		Expect(errors.As(err, &dirErr)).To(BeTrue())
	})

	It("stops when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newService().Export(ctx, service.ExportRequest{ParentDir: parent, Features: features, Sink: sink})
		Expect(err).To(MatchError(context.Canceled))
		Expect(sink.features).To(BeEmpty())
	})

	It("records the run in the catalog", func() {
		catalog := memoryStore()
		summary, err := service.NewExportService(catalog, extract.Options{}, "").WithClock(clock).Export(context.TODO(), service.ExportRequest{
			ParentDir: parent,
			Features:  features,
			Sink:      sink,
		})
		Expect(err).ToNot(HaveOccurred())

		run, err := catalog.Run().Get(context.TODO(), summary.RunID)
		Expect(err).ToNot(HaveOccurred())
		Expect(run.Direction).To(Equal("export"))
		Expect(run.Workspace).To(Equal(workspace))
		Expect(run.Profiles).To(HaveLen(3))
		Expect(run.Profiles[0].Status).To(Equal(model.StatusOK))
		Expect(run.Profiles[1].Status).To(Equal(model.StatusNotFound))
		Expect(run.Profiles[2].Status).To(Equal(model.StatusParseError))
		Expect(run.Failures()).To(Equal(2))
	})
})
