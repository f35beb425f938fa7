package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jlrickert/renderpath/pkg/batch"
	"github.com/jlrickert/renderpath/pkg/internal"
	"github.com/jlrickert/renderpath/pkg/log"
	"github.com/spf13/cobra"
)

type batchFlags struct {
	preset     string
	customPath string
	format     string
	autoInc    bool
	mkdir      bool
	dryRun     bool
	report     string
	output     string
	cflags     contextFlags
}

func NewBatchCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "create or update output paths for many sources",
	}
	cmd.AddCommand(
		newBatchRunCmd(deps, batch.CreateWrite),
		newBatchRunCmd(deps, batch.UpdateVersions),
	)
	return cmd
}

func newBatchRunCmd(deps *Deps, typ batch.OperationType) *cobra.Command {
	var f batchFlags

	cmd := &cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, deps, typ, &f, args)
		},
	}
	switch typ {
	case batch.CreateWrite:
		cmd.Use = "create SOURCE..."
		cmd.Short = "build a versioned output path for each source file"
		cmd.Example = `  rpath batch create /plates/bg.1001.exr /plates/fg.1001.exr --set project_path=/jobs/show
  rpath batch create --preset Review --mkdir /plates/*.exr
  find /plates -name '*.exr' | rpath batch create - --dry-run --report md`
	case batch.UpdateVersions:
		cmd.Use = "update PATH..."
		cmd.Short = "bump each output path to its next free version"
	}

	flags := cmd.Flags()
	if typ == batch.CreateWrite {
		flags.StringVarP(&f.preset, "preset", "p", "", "preset for the output template")
		flags.StringVar(&f.customPath, "path", "", "output template; [read_name] is replaced per source")
		flags.StringVarP(&f.format, "format", "f", "", "file extension")
		flags.BoolVar(&f.mkdir, "mkdir", false, "create output directories (default from config)")
		f.cflags.bind(cmd)
	}
	flags.BoolVar(&f.autoInc, "auto-increment", true, "bump versions already on disk (default from config)")
	flags.BoolVar(&f.dryRun, "dry-run", false, "report paths without creating directories")
	flags.StringVar(&f.report, "report", "", "print a report instead of result lines (md, html, or term)")
	flags.StringVarP(&f.output, "output", "o", "", "write the report to a file")
	return cmd
}

func runBatch(cmd *cobra.Command, deps *Deps, typ batch.OperationType, f *batchFlags, args []string) error {
	ctx := cmd.Context()
	switch f.report {
	case "", "md", "html", "term":
	default:
		return fmt.Errorf("unknown report format %q: want md, html, or term", f.report)
	}

	sources, err := readSources(cmd, args)
	if err != nil {
		return err
	}
	s, err := deps.Store(ctx)
	if err != nil {
		return err
	}
	base, err := f.cflags.apply(deps.BaseContext())
	if err != nil {
		return err
	}

	op := batch.Operation{
		Type:              typ,
		Sources:           sources,
		PresetName:        f.preset,
		CustomPath:        f.customPath,
		Format:            f.format,
		AutoIncrement:     deps.Config.AutoIncrement,
		CreateDirectories: deps.Config.CreateDirectories,
		DryRun:            f.dryRun,
	}
	if op.Format == "" {
		op.Format = deps.Config.DefaultFormat
	}
	if cmd.Flags().Changed("auto-increment") {
		op.AutoIncrement = f.autoInc
	}
	if cmd.Flags().Changed("mkdir") {
		op.CreateDirectories = f.mkdir
	}

	lg := log.FromContext(ctx)
	p := batch.NewProcessor(s, deps.Resolver, base)
	res := p.Process(ctx, op, func(current, total int, msg string) {
		lg.Debug("batch progress", "current", current, "total", total, "message", msg)
	})

	if f.report != "" {
		if err := writeReport(cmd, res, f.report, f.output); err != nil {
			return err
		}
	} else {
		printResults(cmd.OutOrStdout(), res)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if n := res.FailedCount(); n > 0 {
		return fmt.Errorf("%d of %d sources failed", n, res.TotalCount())
	}
	return nil
}

// readSources treats "-" as a list of paths on stdin, one per line. With no
// arguments, piped stdin is read the same way.
func readSources(cmd *cobra.Command, args []string) ([]batch.Source, error) {
	if len(args) == 0 && internal.IsPipe(cmd.InOrStdin()) {
		args = []string{"-"}
	}
	var out []batch.Source
	for _, arg := range args {
		if arg != "-" {
			out = append(out, batch.Source{Path: arg})
			continue
		}
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				out = append(out, batch.Source{Path: line})
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read sources: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no sources given")
	}
	return out, nil
}

func printResults(w io.Writer, res *batch.OperationResult) {
	for _, r := range res.Results {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", status, r.SourceName, r.OutputPath)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "\terror: %s\n", e)
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "\twarning: %s\n", warn)
		}
	}
	fmt.Fprintf(w, "%d of %d succeeded (%.0f%%)\n", res.SuccessCount(), res.TotalCount(), res.SuccessRate())
}

func writeReport(cmd *cobra.Command, res *batch.OperationResult, format, output string) error {
	data := batch.Report(res)
	switch format {
	case "html":
		var err error
		if data, err = batch.ReportHTML(res); err != nil {
			return err
		}
	case "term":
		out, err := batch.ReportTerminal(res, reportStyle(cmd.OutOrStdout(), output), 0)
		if err != nil {
			return err
		}
		data = []byte(out)
	}
	if output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// reportStyle honors $GLAMOUR_STYLE, and otherwise only colors output bound
// for a terminal.
func reportStyle(w io.Writer, output string) string {
	if style := os.Getenv("GLAMOUR_STYLE"); style != "" {
		return style
	}
	if output == "" && internal.IsTerminal(w) {
		return "dark"
	}
	return "notty"
}
