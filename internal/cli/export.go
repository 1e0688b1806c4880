package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geovolt/geophygis/internal/extract"
	"github.com/geovolt/geophygis/internal/geometry"
	"github.com/geovolt/geophygis/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

// allowedWindows are the smoothing windows offered to the user; 0 disables smoothing.
var allowedWindows = []int{0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

type ExportOptions struct {
	GlobalOptions
	PointsPath    string
	ParentDir     string
	OutputPath    string
	Window        int
	NullValue     float64
	ParameterPath string
	Invert        bool
}

func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdExport() *cobra.Command {
	o := DefaultExportOptions()
	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Merge sampled elevations into resistivity data files",
		Example:      "export --points profiles_points.geojson --parent-dir /data/site1 --window 5 --ivp /data/default.ivp",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())

	if err := markRequired(cmd, "points", "parent-dir"); err != nil {
		panic(err)
	}

	return cmd
}

func (o *ExportOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.PointsPath, "points", o.PointsPath, "GeoJSON file of points sampled along the profiles")
	fs.StringVar(&o.ParentDir, "parent-dir", o.ParentDir, "Directory holding the {ID}.dat data files")
	fs.StringVarP(&o.OutputPath, "output", "o", o.OutputPath, "GeoJSON file receiving the input points (default <points>_export.geojson)")
	fs.IntVarP(&o.Window, "window", "w", o.Window, "Median window of the elevation smoothing, 0 disables it")
	fs.Float64Var(&o.NullValue, "null-value", o.NullValue, "Additional elevation value treated as missing")
	fs.StringVar(&o.ParameterPath, "ivp", o.ParameterPath, "Inversion parameter file referenced by the batch files")
	fs.BoolVar(&o.Invert, "invert", o.Invert, "Run the configured inversion tool on every batch file")
}

func (o *ExportOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	cfg := o.Config().Export

	if cmd.Flags().Changed("window") {
		cfg.MedianWindow = o.Window
	} else {
		o.Window = cfg.MedianWindow
	}
	if cmd.Flags().Changed("null-value") {
		cfg.NullValue = o.NullValue
	} else {
		o.NullValue = cfg.NullValue
	}
	if cmd.Flags().Changed("ivp") {
		cfg.ParameterFile = o.ParameterPath
	} else {
		o.ParameterPath = cfg.ParameterFile
	}
	if o.OutputPath == "" {
		o.OutputPath = strings.TrimSuffix(o.PointsPath, filepath.Ext(o.PointsPath)) + "_export.geojson"
	}
	return nil
}

func (o *ExportOptions) Validate(args []string) error {
	if !funk.ContainsInt(allowedWindows, o.Window) {
		return fmt.Errorf("invalid window %d, must be one of %v", o.Window, allowedWindows)
	}
	if o.Invert && o.Config().Export.InversionTool == "" {
		return fmt.Errorf("--invert requires GEOPHYGIS_INVERSION_TOOL or export.inversionTool to be set")
	}
	if o.Invert && o.ParameterPath == "" {
		return fmt.Errorf("--invert requires an inversion parameter file (--ivp)")
	}
	return o.GlobalOptions.Validate(args)
}

func (o *ExportOptions) Run(ctx context.Context, args []string) error {
	cfg := o.Config().Export

	points, err := geometry.ReadFeatureCollection(o.PointsPath)
	if err != nil {
		return err
	}
	sink, err := geometry.NewSink(o.OutputPath)
	if err != nil {
		return err
	}

	st, err := o.Store()
	if err != nil {
		_ = sink.Close()
		return err
	}
	if st != nil {
		defer st.Close()
	}

	null := o.NullValue
	svc := service.NewExportService(st, extract.Options{
		IDField:        cfg.IDField,
		DistanceField:  cfg.DistanceField,
		ElevationField: cfg.ElevationField,
		NullValue:      &null,
	}, cfg.InversionTool)

	summary, err := svc.Export(ctx, service.ExportRequest{
		ParentDir:     o.ParentDir,
		Features:      points.Features,
		Sink:          sink,
		Window:        o.Window,
		ParameterPath: o.ParameterPath,
		Invert:        o.Invert,
	})
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if summary != nil {
		if perr := summary.Print(os.Stdout); perr != nil {
			zap.S().Named("export").Warnf("failed to print summary: %v", perr)
		}
	}
	if ferr := o.Finish(); err == nil {
		err = ferr
	}
	return err
}
