package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// Severity classifies a compiler message.
type Severity string

// Message severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// CompilerMessage is one line of compiler output.
type CompilerMessage struct {
	Severity Severity
	Text     string
}

// CompileResult is the outcome of one compiler invocation.
type CompileResult struct {
	Success  bool
	Messages []CompilerMessage
}

// Errors returns the error-severity messages.
func (r CompileResult) Errors() []string {
	var out []string

	for _, msg := range r.Messages {
		if msg.Severity == SeverityError {
			out = append(out, msg.Text)
		}
	}

	return out
}

// CompilerAdapter compiles a single-file program and reports phase timings
// as PERF info messages.
type CompilerAdapter interface {
	Compile(ctx context.Context, code string) (CompileResult, error)
}

// Perf marker formats emitted by LocalGoCompilerAdapter.
const (
	AnalysisMarkerFormat   = "PERF: analysis time is %d ms"
	GenerationMarkerFormat = "PERF: generation time is %d ms"
)

const scratchGoMod = "module slothcase\n\ngo 1.21\n"

// LocalGoCompilerAdapter times `go vet` (analysis) and `go build` (code
// generation) on a scratch module.
type LocalGoCompilerAdapter struct {
	goBinary string
	timeout  time.Duration
	workRoot string
	nonce    atomic.Uint64
}

// NewLocalGoCompilerAdapter constructs a LocalGoCompilerAdapter. An empty
// goBinary means "go" from PATH; a zero timeout means 30s.
func NewLocalGoCompilerAdapter(goBinary string, timeout time.Duration) *LocalGoCompilerAdapter {
	if goBinary == "" {
		goBinary = "go"
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &LocalGoCompilerAdapter{goBinary: goBinary, timeout: timeout}
}

// WithWorkRoot places scratch modules under dir instead of the OS temp dir.
func (a *LocalGoCompilerAdapter) WithWorkRoot(dir string) *LocalGoCompilerAdapter {
	a.workRoot = dir
	return a
}

// Compile implements CompilerAdapter.
func (a *LocalGoCompilerAdapter) Compile(ctx context.Context, code string) (CompileResult, error) {
	dir, err := os.MkdirTemp(a.workRoot, "sloth-compile-*")
	if err != nil {
		return CompileResult{}, fmt.Errorf("failed to create scratch module: %w", err)
	}

	defer func() {
		_ = os.RemoveAll(dir)
	}()

	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(scratchGoMod), 0o600); err != nil {
		return CompileResult{}, fmt.Errorf("failed to write go.mod: %w", err)
	}

	// a fresh trailing comment keeps the build cache from answering for us
	source := ensureTrailingNewline(code) + fmt.Sprintf("// sloth:%d\n", a.nonce.Add(1))
	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte(source), 0o600); err != nil {
		return CompileResult{}, fmt.Errorf("failed to write main.go: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	vetOut, vetTime, vetErr := a.run(ctx, dir, "vet", ".")
	if err := phaseError(ctx, "vet", vetErr); err != nil {
		return CompileResult{}, err
	}

	buildOut, buildTime, buildErr := a.run(ctx, dir, "build", "-o", filepath.Join(dir, "case.bin"), ".")
	if err := phaseError(ctx, "build", buildErr); err != nil {
		return CompileResult{}, err
	}

	result := CompileResult{
		Success: buildErr == nil,
		Messages: []CompilerMessage{
			{Severity: SeverityInfo, Text: fmt.Sprintf(AnalysisMarkerFormat, vetTime.Milliseconds())},
			{Severity: SeverityInfo, Text: fmt.Sprintf(GenerationMarkerFormat, buildTime.Milliseconds())},
		},
	}

	if vetErr != nil && buildErr == nil {
		for _, d := range ParseDiagnostics(vetOut) {
			result.Messages = append(result.Messages, CompilerMessage{Severity: SeverityWarning, Text: d})
		}
	}

	if buildErr != nil {
		for _, d := range ParseDiagnostics(buildOut) {
			result.Messages = append(result.Messages, CompilerMessage{Severity: SeverityError, Text: d})
		}
	}

	return result, nil
}

func (a *LocalGoCompilerAdapter) run(ctx context.Context, dir string, args ...string) (string, time.Duration, error) {
	// #nosec G204 - the binary is operator configuration, arguments are fixed
	cmd := exec.CommandContext(ctx, a.goBinary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK=off", "GOFLAGS=-mod=mod", "GOTOOLCHAIN=local")

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	return stdout.String() + stderr.String(), elapsed, err
}

// phaseError separates "the code does not compile" (nil) from failures of
// the invocation itself.
func phaseError(ctx context.Context, phase string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("go %s: %w", phase, ctxErr)
	}

	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}

	return fmt.Errorf("go %s: %w", phase, err)
}

var diagnosticPosition = regexp.MustCompile(`^(?:vet: )?(?:\./)?[^\s:]+\.go:\d+(?::\d+)?: `)

// ParseDiagnostics extracts messages from go tool output, dropping package
// headers and file positions so equal problems aggregate.
func ParseDiagnostics(output string) []string {
	var out []string

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		out = append(out, diagnosticPosition.ReplaceAllString(line, ""))
	}

	return out
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}

	return s + "\n"
}
