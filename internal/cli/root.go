// Package cli implements the docxtemplater command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	godocx "github.com/Navl-bm/docxtemplater"
	"github.com/Navl-bm/docxtemplater/internal/data"
	"github.com/Navl-bm/docxtemplater/internal/expression"
	"github.com/Navl-bm/docxtemplater/internal/merge"
)

// Version information, set from main.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Main runs the command with args (without the program name) and returns
// the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	f := &flags{}
	cmd := newRootCmd(f, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if f.help {
		return 1
	}
	if err == nil {
		return 0
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprint(stdout, cmd.UsageString())
		return 1
	}

	if rerr := writeReport(stderr, err); rerr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}

func newRootCmd(f *flags, logOutput io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docxtemplater <input.docx> <data.json|data.csv> <output.docx>",
		Short: "Fill a docx template with JSON or CSV data",
		Long: `docxtemplater fills the tags of a .docx template with data.

A JSON object produces one document at <output.docx>. A JSON array or a CSV
file produces one document per record, named by inserting the record number
before ".docx" (out1.docx, out2.docx, ...) unless the record has a
"_filename" field.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(args, f, logOutput)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&f.options, FlagOptions, "", DescOptions)
	cmd.Flags().StringVar(&f.optionsFile, FlagOptionsFile, "", DescOptionsFile)
	cmd.Flags().StringVar(&f.logLevel, FlagLogLevel, defaultLogLevel, DescLogLevel)
	cmd.Flags().StringVar(&f.logFormat, FlagLogFormat, defaultLogFormat, DescLogFormat)
	cmd.Flags().BoolVarP(&f.help, FlagHelp, "h", false, DescHelp)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		fmt.Fprint(c.OutOrStdout(), c.UsageString())
	})
	return cmd
}

func run(ctx context.Context, cfg Config) error {
	content, err := os.ReadFile(cfg.Input)
	if err != nil {
		return errors.Wrap(err, "read template")
	}

	d, err := data.Load(ctx, cfg.Data)
	if err != nil {
		return err
	}
	cfg.Logger.Debug("data loaded", "path", cfg.Data, "records", len(d.Records), "sequence", d.Sequence)

	opts := cfg.Options
	opts.Parser = expression.NewParser()
	tmpl, err := godocx.New(content, opts)
	if err != nil {
		return err
	}
	cfg.Logger.Debug("template loaded", "path", cfg.Input, "tags", len(tmpl.Tags()))

	written, err := merge.New(tmpl, nil, cfg.Logger).Run(ctx, d, cfg.Output)
	if err != nil {
		return err
	}
	cfg.Logger.Debug("merge finished", "documents", len(written))
	return nil
}
