package dcos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mesoslab/dispatcher-deploy/internal/cluster"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	_defaultBinary   = "dcos"
	_defaultQuotaCLI = "spark"
)

// ErrWaitUnsupported is returned when an install asks to block until the
// service is healthy. The CLI only reports acceptance of the request, so
// callers that need readiness have to poll the scheduler themselves.
var ErrWaitUnsupported = errors.New("waiting for deployment is not supported")

// Runner executes one CLI invocation. Both output streams are captured,
// nothing is forwarded to the process's stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct {
	binary  string
	timeout time.Duration
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		return nil, &CommandError{
			Args:     args,
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			cause:    err,
		}
	}

	return stdout.Bytes(), nil
}

// CommandError carries the full invocation context of a failed CLI call.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string

	cause error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("dcos %s: exit %d: %s", strings.Join(e.Args, " "), e.ExitCode, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.cause }

type CLIClientOpts struct {
	// Binary is the CLI executable. Defaults to "dcos".
	Binary string
	// QuotaCLI is the package subcommand that owns quota management.
	// Defaults to "spark".
	QuotaCLI string
	// Timeout bounds a single CLI invocation. Zero means no bound beyond ctx.
	Timeout time.Duration

	Runner Runner
	Log    *zap.Logger
}

type CLIClient struct {
	CLIClientOpts
}

var _ cluster.Client = (*CLIClient)(nil)

func NewCLIClient(opts CLIClientOpts) *CLIClient {
	if opts.Binary == "" {
		opts.Binary = _defaultBinary
	}
	if opts.QuotaCLI == "" {
		opts.QuotaCLI = _defaultQuotaCLI
	}
	if opts.Runner == nil {
		opts.Runner = &execRunner{binary: opts.Binary, timeout: opts.Timeout}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	return &CLIClient{CLIClientOpts: opts}
}

func (c *CLIClient) run(ctx context.Context, args ...string) ([]byte, error) {
	start := time.Now()

	out, err := c.Runner.Run(ctx, args...)

	c.Log.Debug("ran cli command",
		zap.Strings("args", args),
		zap.Duration("took", time.Since(start)),
		zap.Bool("failed", err != nil),
	)

	return out, err
}

func (c *CLIClient) InstallCLI(ctx context.Context, packageName string) error {
	_, err := c.run(ctx, "package", "install", packageName, "--cli", "--yes")
	return errors.Wrap(err, "installing package cli")
}

func (c *CLIClient) InstallPackage(ctx context.Context, req cluster.InstallRequest) error {
	if req.Wait {
		return ErrWaitUnsupported
	}

	path, cleanup, err := writeOptionsFile(req.Options)
	if err != nil {
		return err
	}
	defer cleanup()

	c.Log.Debug("submitting package install",
		zap.String("package", req.PackageName),
		zap.String("service", req.ServiceName),
	)

	_, err = c.run(ctx, "package", "install", req.PackageName, "--options="+path, "--yes")
	return errors.Wrap(err, "installing package")
}

func (c *CLIClient) ListQuotas(ctx context.Context) ([]cluster.Quota, error) {
	out, err := c.run(ctx, c.QuotaCLI, "quota", "list", "--json")
	if err != nil {
		return nil, errors.Wrap(err, "listing quotas")
	}

	var resp quotaListResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshaling quota list")
	}

	quotas := make([]cluster.Quota, 0, len(resp.Infos))
	for _, info := range resp.Infos {
		quotas = append(quotas, info.toQuota())
	}

	return quotas, nil
}

func (c *CLIClient) CreateQuota(ctx context.Context, role string, cpus, gpus, memMB float64) error {
	args := []string{
		c.QuotaCLI, "quota", "create",
		"-c", formatScalar(cpus),
		"-g", formatScalar(gpus),
		"-m", formatScalar(memMB),
		role,
	}

	_, err := c.run(ctx, args...)
	return errors.Wrap(err, "creating quota")
}

func (c *CLIClient) RemoveQuota(ctx context.Context, role string) error {
	_, err := c.run(ctx, c.QuotaCLI, "quota", "remove", role)
	return errors.Wrap(err, "removing quota")
}

func (c *CLIClient) ListRepositories(ctx context.Context) ([]cluster.Repository, error) {
	out, err := c.run(ctx, "package", "repo", "list", "--json")
	if err != nil {
		return nil, errors.Wrap(err, "listing package repositories")
	}

	var resp repoListResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshaling repository list")
	}

	repos := make([]cluster.Repository, 0, len(resp.Repositories))
	for _, repo := range resp.Repositories {
		repos = append(repos, cluster.Repository{Name: repo.Name, URI: repo.URI})
	}

	return repos, nil
}

func (c *CLIClient) AddRepository(ctx context.Context, name string, uri string) error {
	_, err := c.run(ctx, "package", "repo", "add", name, uri)
	return errors.Wrap(err, "adding package repository")
}

type quotaListResponse struct {
	Infos []quotaInfo `json:"infos"`
}

type quotaInfo struct {
	Role      string          `json:"role"`
	Guarantee []quotaResource `json:"guarantee"`
}

type quotaResource struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Scalar struct {
		Value float64 `json:"value"`
	} `json:"scalar"`
}

func (i quotaInfo) toQuota() cluster.Quota {
	q := cluster.Quota{Role: i.Role}

	for _, res := range i.Guarantee {
		switch res.Name {
		case "cpus":
			q.CPUs = res.Scalar.Value
		case "gpus":
			q.GPUs = res.Scalar.Value
		case "mem":
			q.MemMB = res.Scalar.Value
		}
	}

	return q
}

type repoListResponse struct {
	Repositories []struct {
		Name string `json:"name"`
		URI  string `json:"uri"`
	} `json:"repositories"`
}

func formatScalar(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeOptionsFile(options map[string]any) (path string, cleanup func(), err error) {
	file, err := os.CreateTemp("", "dispatcher-options-*.json")
	if err != nil {
		return "", nil, errors.Wrap(err, "creating options file")
	}

	cleanup = func() { os.Remove(file.Name()) }

	if err := json.NewEncoder(file).Encode(options); err != nil {
		file.Close()
		cleanup()
		return "", nil, errors.Wrap(err, "encoding options")
	}

	if err := file.Close(); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, "closing options file")
	}

	return file.Name(), cleanup, nil
}
