package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/geovolt/geophygis/internal/store"
	"github.com/geovolt/geophygis/internal/store/model"
	"github.com/geovolt/geophygis/pkg/metrics"
	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
	legalDirections  = []string{metrics.Export, metrics.Import}
)

type RunsOptions struct {
	GlobalOptions

	Direction string
	ParentDir string
	Limit     int
	Delete    bool
	Output    string

	out io.Writer
}

func DefaultRunsOptions() *RunsOptions {
	return &RunsOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Limit:         20,
	}
}

func NewCmdRuns() *cobra.Command {
	o := DefaultRunsOptions()
	cmd := &cobra.Command{
		Use:   "runs [ID]",
		Short: "Display the runs recorded in the run catalog",
		Example: "runs --direction import --limit 5\n" +
			"runs 0b0d1f52-4c1e-4a8e-9d59-3f0f6c7d2a11\n" +
			"runs --delete 0b0d1f52-4c1e-4a8e-9d59-3f0f6c7d2a11",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *RunsOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Direction, "direction", o.Direction, fmt.Sprintf("Only list runs of this direction, one of (%s)", strings.Join(legalDirections, ", ")))
	fs.StringVar(&o.ParentDir, "parent-dir", o.ParentDir, "Only list runs of this parent directory")
	fs.IntVar(&o.Limit, "limit", o.Limit, "Maximum number of runs listed, 0 lists all")
	fs.BoolVar(&o.Delete, "delete", o.Delete, "Delete the run given by ID from the catalog")
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *RunsOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	o.out = cmd.OutOrStdout()
	return nil
}

func (o *RunsOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if len(args) == 1 {
		if _, err := uuid.Parse(args[0]); err != nil {
			return fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
	}
	if o.Delete && len(args) == 0 {
		return errors.New("--delete requires a run ID")
	}
	if o.Direction != "" && !funk.ContainsString(legalDirections, o.Direction) {
		return fmt.Errorf("direction must be one of %s", strings.Join(legalDirections, ", "))
	}
	if o.Limit < 0 {
		return fmt.Errorf("invalid limit %d", o.Limit)
	}
	if len(o.Output) > 0 && !funk.ContainsString(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

func (o *RunsOptions) Run(ctx context.Context, args []string) error {
	st, err := o.Store()
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("no run catalog configured, set GEOPHYGIS_DB_TYPE or database.type")
	}
	defer st.Close()

	switch {
	case len(args) == 1 && o.Delete:
		id := uuid.MustParse(args[0])
		if err := st.Run().Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting run %s: %w", id, err)
		}
		fmt.Fprintf(o.out, "run %s deleted\n", id)
	case len(args) == 1:
		id := uuid.MustParse(args[0])
		run, err := st.Run().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("reading run %s: %w", id, err)
		}
		if err := o.print(run, func(w *tabwriter.Writer) {
			printRunsTable(w, *run)
			fmt.Fprintln(w)
			printProfilesTable(w, run.Profiles...)
		}); err != nil {
			return err
		}
	default:
		runs, err := st.Run().List(ctx, o.filter(), o.queryOptions())
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		if runs == nil {
			runs = model.RunList{}
		}
		if err := o.print(runs, func(w *tabwriter.Writer) { printRunsTable(w, runs...) }); err != nil {
			return err
		}
	}
	return o.Finish()
}

func (o *RunsOptions) filter() *store.RunQueryFilter {
	filter := store.NewRunQueryFilter()
	if o.Direction != "" {
		filter = filter.ByDirection(o.Direction)
	}
	if o.ParentDir != "" {
		filter = filter.ByParentDir(o.ParentDir)
	}
	return filter
}

func (o *RunsOptions) queryOptions() *store.RunQueryOptions {
	opts := store.NewRunQueryOptions().WithSortOrder(store.SortByStartedTimeDesc)
	if o.Limit > 0 {
		opts = opts.WithLimit(o.Limit)
	}
	return opts
}

func (o *RunsOptions) print(resource any, table func(w *tabwriter.Writer)) error {
	switch o.Output {
	case jsonFormat:
		marshalled, err := json.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(o.out, "%s\n", string(marshalled))
	case yamlFormat:
		marshalled, err := yaml.Marshal(resource)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Fprintf(o.out, "%s\n", string(marshalled))
	default:
		w := tabwriter.NewWriter(o.out, 0, 8, 1, '\t', 0)
		table(w)
		return w.Flush()
	}
	return nil
}

func printRunsTable(w *tabwriter.Writer, runs ...model.Run) {
	fmt.Fprintln(w, "ID\tDIRECTION\tPARENT DIR\tSTARTED\tFINISHED\tPROFILES\tFAILED")
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n", r.ID, r.Direction, r.ParentDir, r.StartedAt.Format(time.RFC3339), finished, len(r.Profiles), r.Failures())
	}
}

func printProfilesTable(w *tabwriter.Writer, profiles ...model.Profile) {
	fmt.Fprintln(w, "PROFILE\tSTATUS\tARRAY\tLENGTH\tMESSAGE")
	for _, p := range profiles {
		length := "-"
		if p.ProfileLength != nil {
			length = survey.FormatNumber(*p.ProfileLength)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ProfileID, p.Status, p.ArrayName, length, p.Message)
	}
}
