package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/automaton-code/internal/app"
	"github.com/bryanwahyu/automaton-code/internal/application/analysis"
	"github.com/bryanwahyu/automaton-code/internal/config"
	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// errFindings makes the process exit 2 when --fail is set and something was found.
var errFindings = errors.New("findings reported")

func exitCode(err error) int {
	if errors.Is(err, errFindings) {
		return 2
	}
	return 1
}

type options struct {
	configPath string
	language   string
	format     string
	noExternal bool
	fail       bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Analyze source files offline with the same analyzers as the API",
		Long: `analyze runs language detection and every registered analyzer over
each file and prints one report per file. With no file, or "-", the code is
read from stdin.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath(), "config file")
	root.PersistentFlags().BoolVar(&opts.noExternal, "no-external", false, "skip external tools such as bandit and pylint")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log analyzer activity to stderr")
	root.Flags().StringVarP(&opts.language, "language", "l", "", "language of stdin input")
	root.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	root.Flags().BoolVar(&opts.fail, "fail", false, "exit with status 2 when any finding is reported")

	root.AddCommand(&cobra.Command{
		Use:   "analyzers",
		Short: "List the analyzers the configuration enables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	})
	return root
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return config.DefaultPath
}

func (o *options) service(cmd *cobra.Command) (*analysis.Service, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if o.noExternal {
		cfg.Analysis.ExternalTools = false
	}
	logOut := io.Discard
	if o.verbose {
		logOut = cmd.ErrOrStderr()
		cfg.Log.Format = "text"
	}
	return app.NewService(cmd.Context(), cfg, cfg.Logger(logOut), nil)
}

type fileReport struct {
	File string `json:"file"`
	domain.Report
}

func runAnalyze(cmd *cobra.Command, opts *options, args []string) error {
	switch opts.format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
	declared := domain.LangUnknown
	if opts.language != "" {
		tag, ok := domain.ParseTag(opts.language)
		if !ok {
			return fmt.Errorf("unsupported language %q", opts.language)
		}
		declared = tag
	}

	svc, err := opts.service(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}

	reports := make([]fileReport, 0, len(args))
	total := 0
	for _, name := range args {
		sub, err := readSubmission(cmd.InOrStdin(), name, declared)
		if err != nil {
			return err
		}
		rep := svc.Analyze(cmd.Context(), sub)
		total += len(rep.Findings)
		reports = append(reports, fileReport{File: name, Report: rep})
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printText(out, r)
		}
	}

	if opts.fail && total > 0 {
		return fmt.Errorf("%w: %d", errFindings, total)
	}
	return nil
}

func readSubmission(stdin io.Reader, name string, declared domain.LanguageTag) (domain.Submission, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return domain.Submission{}, fmt.Errorf("reading stdin: %w", err)
		}
		return domain.Submission{Content: string(data), DeclaredLanguage: declared}, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return domain.Submission{}, err
	}
	return domain.Submission{Content: string(data), Filename: filepath.Base(name)}, nil
}

func printText(w io.Writer, r fileReport) {
	fmt.Fprintf(w, "%s (%s)\n", r.File, r.Language)
	for _, a := range r.Analyzers {
		if a.Status != domain.RunOK {
			fmt.Fprintf(w, "  ! %s %s\n", a.Name, a.Status)
		}
	}
	if len(r.Findings) == 0 {
		fmt.Fprintln(w, "  no findings")
		return
	}
	for _, f := range r.Findings {
		sev := string(f.Severity)
		if sev == "" {
			sev = "-"
		}
		fmt.Fprintf(w, "  %d: [%s] %s (%s)\n", f.Line, sev, f.Type, f.Tool)
		fmt.Fprintf(w, "      %s\n", strings.ReplaceAll(f.Code, "\n", "\n      "))
	}
}

func runList(cmd *cobra.Command, opts *options) error {
	svc, err := opts.service(cmd)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLANGUAGE\tKIND")
	for _, d := range svc.Registry.Descriptors() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Language, d.Kind)
	}
	return tw.Flush()
}
