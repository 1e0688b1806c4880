package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/geovolt/geophygis/internal/geometry"
	"github.com/geovolt/geophygis/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type ImportOptions struct {
	GlobalOptions
	LinesPath     string
	ParentDir     string
	OutputPath    string
	DeviceHeaders bool
	Workbook      bool
}

func DefaultImportOptions() *ImportOptions {
	return &ImportOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdImport() *cobra.Command {
	o := DefaultImportOptions()
	cmd := &cobra.Command{
		Use:          "import",
		Short:        "Attach survey metadata to profile lines",
		Example:      "import --lines profiles.geojson --parent-dir /data/site1 --device-headers",
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

	if err := markRequired(cmd, "lines", "parent-dir"); err != nil {
		panic(err)
	}

	return cmd
}

func (o *ImportOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.LinesPath, "lines", o.LinesPath, "GeoJSON file of the profile lines")
	fs.StringVar(&o.ParentDir, "parent-dir", o.ParentDir, "Directory holding the .dat data files and .2dm device headers")
	fs.StringVarP(&o.OutputPath, "output", "o", o.OutputPath, "GeoJSON file receiving the merged lines (default <lines>_import.geojson)")
	fs.BoolVar(&o.DeviceHeaders, "device-headers", o.DeviceHeaders, "Read the .2dm device header of every profile")
	fs.BoolVar(&o.Workbook, "workbook", o.Workbook, "Also write the documentation sheet as an xlsx workbook")
}

func (o *ImportOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	cfg := o.Config().Import

	if !cmd.Flags().Changed("device-headers") {
		o.DeviceHeaders = cfg.DeviceHeaders
	}
	if !cmd.Flags().Changed("workbook") {
		o.Workbook = cfg.Workbook
	}
	if o.OutputPath == "" {
		o.OutputPath = strings.TrimSuffix(o.LinesPath, filepath.Ext(o.LinesPath)) + "_import.geojson"
	}
	return nil
}

func (o *ImportOptions) Validate(args []string) error {
	return o.GlobalOptions.Validate(args)
}

func (o *ImportOptions) Run(ctx context.Context, args []string) error {
	mode, err := geometry.ParseMode(o.Config().Service.MeasureMode)
	if err != nil {
		return err
	}
	lines, err := geometry.ReadFeatureCollection(o.LinesPath)
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

	summary, err := service.NewImportService(st, mode).Import(ctx, service.ImportRequest{
		ParentDir:     o.ParentDir,
		Lines:         lines.Features,
		Sink:          sink,
		DeviceHeaders: o.DeviceHeaders,
		Workbook:      o.Workbook,
	})
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if summary != nil {
		if perr := summary.Print(os.Stdout); perr != nil {
			zap.S().Named("import").Warnf("failed to print summary: %v", perr)
		}
	}
	if ferr := o.Finish(); err == nil {
		err = ferr
	}
	return err
}
