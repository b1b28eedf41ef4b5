// Package executor runs external analyzers (bandit, pylint and friends) as
// child processes, either from PATH or inside a throwaway docker container.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

// defaultWaitDelay bounds how long Run waits for pipes after a kill.
const defaultWaitDelay = 2 * time.Second

// Tool declares an external analyzer.
type Tool struct {
	Name     string   `yaml:"name"`
	Language string   `yaml:"language"`
	Kind     string   `yaml:"kind"`
	Format   string   `yaml:"format"`
	Command  []string `yaml:"command"`
	// Image runs Command inside "docker run --rm -i <image>" when set. Each
	// run gets its own container name so a timed out run can be killed.
	Image string   `yaml:"image"`
	Env   []string `yaml:"env"`
}

// DefaultTools are the analyzers used when the config declares none.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:     "bandit",
			Language: "python",
			Kind:     string(domain.KindSecurity),
			Format:   string(domain.FormatSecurityJSON),
			Command:  []string{"bandit", "-q", "-f", "json", "-"},
		},
		{
			Name:     "pylint",
			Language: "python",
			Kind:     string(domain.KindStyle),
			Format:   string(domain.FormatLintText),
			Command: []string{
				"pylint", "--from-stdin", "submission.py",
				"--score=n", "--reports=n",
				"--msg-template={line}:{column}:{end_line}:{end_column}: {msg_id} {symbol}: {msg}",
			},
		},
	}
}

// Runner is the adapter for one Tool.
type Runner struct {
	tool      Tool
	desc      domain.Descriptor
	format    domain.RawFormat
	waitDelay time.Duration
	// docker is the client command image tools run through.
	docker []string
	// stop kills the named container when a run is cancelled.
	stop func(name string) error
}

// New validates t and prepares its command line.
func New(t Tool) (*Runner, error) {
	if t.Name == "" {
		return nil, errors.New("tool missing name")
	}
	if len(t.Command) == 0 {
		return nil, fmt.Errorf("tool %s: empty command", t.Name)
	}
	lang, ok := domain.ParseTag(t.Language)
	if !ok || lang == domain.LangUnknown {
		return nil, fmt.Errorf("tool %s: unsupported language %q", t.Name, t.Language)
	}
	kind := domain.ToolKind(t.Kind)
	if kind != domain.KindSecurity && kind != domain.KindStyle {
		return nil, fmt.Errorf("tool %s: unknown kind %q", t.Name, t.Kind)
	}
	format := domain.RawFormat(t.Format)
	switch format {
	case domain.FormatSecurityJSON, domain.FormatLintText, domain.FormatSARIF, domain.FormatLLMJSON:
	default:
		return nil, fmt.Errorf("tool %s: unknown format %q", t.Name, t.Format)
	}

	r := &Runner{
		tool:      t,
		desc:      domain.Descriptor{Name: t.Name, Language: lang, Kind: kind},
		format:    format,
		waitDelay: defaultWaitDelay,
		docker:    []string{"docker"},
	}
	r.stop = r.killContainer
	return r, nil
}

// Available builds runners for tools whose binary resolves on PATH. Invalid
// or missing tools are logged and skipped.
func Available(tools []Tool, log *slog.Logger) []*Runner {
	var out []*Runner
	for _, t := range tools {
		r, err := New(t)
		if err != nil {
			log.Warn("skipping external tool", "tool", t.Name, "error", err)
			continue
		}
		bin := r.binary()
		if _, err := exec.LookPath(bin); err != nil {
			log.Info("external tool not installed", "tool", t.Name, "binary", bin)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (r *Runner) Descriptor() domain.Descriptor { return r.desc }

// Argv is a command line as Run executes it. Image tools get a fresh
// container name on every call.
func (r *Runner) Argv() []string {
	argv, _ := r.command()
	return argv
}

func (r *Runner) binary() string {
	if r.tool.Image != "" {
		return r.docker[0]
	}
	return r.tool.Command[0]
}

// command returns the argv for one run and, for image tools, the name of the
// container it starts.
func (r *Runner) command() (argv []string, container string) {
	if r.tool.Image == "" {
		return append([]string(nil), r.tool.Command...), ""
	}
	container = "automaton-" + uuid.NewString()
	argv = append([]string(nil), r.docker...)
	argv = append(argv, "run", "--rm", "-i", "--network", "none", "--name", container, r.tool.Image)
	return append(argv, r.tool.Command...), container
}

// killContainer runs "docker kill". Killing the client alone leaves the
// container running.
func (r *Runner) killContainer(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.waitDelay)
	defer cancel()
	args := append(append([]string(nil), r.docker[1:]...), "kill", name)
	if out, err := exec.CommandContext(ctx, r.docker[0], args...).CombinedOutput(); err != nil {
		return fmt.Errorf("docker kill %s: %w: %s", name, err, bytes.TrimSpace(out))
	}
	return nil
}

// Run feeds code to the tool on stdin and returns its stdout. A non-zero exit
// with output is a normal result (linters exit non-zero on findings).
func (r *Runner) Run(ctx context.Context, code string) (domain.RawOutput, error) {
	argv, container := r.command()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(code)
	cmd.Env = append(os.Environ(), r.tool.Env...)
	cmd.Cancel = func() error {
		if container != "" {
			// best effort: the container may already be gone
			_ = r.stop(container)
		}
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = r.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return domain.RawOutput{}, fmt.Errorf("%s: %w", r.desc.Name, ctx.Err())
	}
	if err != nil {
		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			return domain.RawOutput{}, fmt.Errorf("%s: %w", r.desc.Name, err)
		}
		if stdout.Len() == 0 {
			return domain.RawOutput{}, fmt.Errorf("%s exited %d: %s", r.desc.Name, ee.ExitCode(), strings.TrimSpace(stderr.String()))
		}
	}
	return domain.RawOutput{Format: r.format, Data: stdout.Bytes()}, nil
}
