package dcos

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/mesoslab/dispatcher-deploy/internal/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls   [][]string
	outputs map[string][]byte
	err     error

	// onRun observes side effects while the command "runs", e.g. reads
	// the options tempfile before the client removes it.
	onRun func(args []string)
}

func (r *fakeRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	r.calls = append(r.calls, args)

	if r.onRun != nil {
		r.onRun(args)
	}
	if r.err != nil {
		return nil, r.err
	}

	return r.outputs[strings.Join(args, " ")], nil
}

func newTestClient(runner *fakeRunner) *CLIClient {
	return NewCLIClient(CLIClientOpts{Runner: runner})
}

func TestNewCLIClientDefaults(t *testing.T) {
	client := NewCLIClient(CLIClientOpts{})

	assert.Equal(t, "dcos", client.Binary)
	assert.Equal(t, "spark", client.QuotaCLI)
	assert.NotNil(t, client.Runner)
	assert.NotNil(t, client.Log)
}

func TestInstallCLI(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	require.NoError(t, client.InstallCLI(context.Background(), "spark"))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"package", "install", "spark", "--cli", "--yes"}, runner.calls[0])
}

func TestInstallPackage(t *testing.T) {
	var optionsPath string
	var written map[string]any

	runner := &fakeRunner{
		onRun: func(args []string) {
			for _, arg := range args {
				if !strings.HasPrefix(arg, "--options=") {
					continue
				}

				optionsPath = strings.TrimPrefix(arg, "--options=")

				raw, err := os.ReadFile(optionsPath)
				if err != nil {
					return
				}
				_ = json.Unmarshal(raw, &written)
			}
		},
	}
	client := newTestClient(runner)

	req := cluster.InstallRequest{
		PackageName: "spark",
		ServiceName: "spark-instance-0",
		Options: map[string]any{
			"service": map[string]any{"name": "spark-instance-0"},
		},
	}
	require.NoError(t, client.InstallPackage(context.Background(), req))

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "package", call[0])
	assert.Equal(t, "install", call[1])
	assert.Equal(t, "spark", call[2])
	assert.Equal(t, "--yes", call[len(call)-1])

	require.NotEmpty(t, optionsPath)
	service, ok := written["service"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "spark-instance-0", service["name"])

	_, err := os.Stat(optionsPath)
	assert.True(t, os.IsNotExist(err), "options tempfile should be removed")
}

func TestInstallPackageRejectsWait(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	err := client.InstallPackage(context.Background(), cluster.InstallRequest{
		PackageName: "spark",
		Wait:        true,
	})

	assert.ErrorIs(t, err, ErrWaitUnsupported)
	assert.Empty(t, runner.calls)
}

func TestListQuotas(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string][]byte{
			"spark quota list --json": []byte(`{
				"infos": [
					{
						"role": "spark-instance-0-drivers-role",
						"guarantee": [
							{"name": "cpus", "type": "SCALAR", "scalar": {"value": 1}},
							{"name": "gpus", "type": "SCALAR", "scalar": {"value": 0}},
							{"name": "mem", "type": "SCALAR", "scalar": {"value": 2048}}
						]
					},
					{"role": "dev", "guarantee": []}
				]
			}`),
		},
	}
	client := newTestClient(runner)

	quotas, err := client.ListQuotas(context.Background())
	require.NoError(t, err)

	require.Len(t, quotas, 2)
	assert.Equal(t, cluster.Quota{
		Role:  "spark-instance-0-drivers-role",
		CPUs:  1,
		GPUs:  0,
		MemMB: 2048,
	}, quotas[0])
	assert.Equal(t, cluster.Quota{Role: "dev"}, quotas[1])
}

func TestListQuotasMalformedOutput(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string][]byte{
			"spark quota list --json": []byte(`Error: cluster unreachable`),
		},
	}
	client := newTestClient(runner)

	_, err := client.ListQuotas(context.Background())
	assert.Error(t, err)
}

func TestCreateQuota(t *testing.T) {
	testcases := []struct {
		desc     string
		cpus     float64
		gpus     float64
		memMB    float64
		wantArgs []string
	}{
		{
			desc:  "integral scalars lose the fraction",
			cpus:  1, gpus: 0, memMB: 2048,
			wantArgs: []string{"spark", "quota", "create", "-c", "1", "-g", "0", "-m", "2048", "team-role"},
		},
		{
			desc:  "fractional scalars keep the fraction",
			cpus:  0.5, gpus: 0, memMB: 1524.5,
			wantArgs: []string{"spark", "quota", "create", "-c", "0.5", "-g", "0", "-m", "1524.5", "team-role"},
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			runner := &fakeRunner{}
			client := newTestClient(runner)

			err := client.CreateQuota(context.Background(), "team-role", tc.cpus, tc.gpus, tc.memMB)
			require.NoError(t, err)

			require.Len(t, runner.calls, 1)
			assert.Equal(t, tc.wantArgs, runner.calls[0])
		})
	}
}

func TestRemoveQuota(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	require.NoError(t, client.RemoveQuota(context.Background(), "team-role"))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"spark", "quota", "remove", "team-role"}, runner.calls[0])
}

func TestListRepositories(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string][]byte{
			"package repo list --json": []byte(`{
				"repositories": [
					{"name": "Universe", "uri": "https://universe.mesosphere.com/repo"},
					{"name": "spark-repo", "uri": "https://example.com/stub-universe.json"}
				]
			}`),
		},
	}
	client := newTestClient(runner)

	repos, err := client.ListRepositories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []cluster.Repository{
		{Name: "Universe", URI: "https://universe.mesosphere.com/repo"},
		{Name: "spark-repo", URI: "https://example.com/stub-universe.json"},
	}, repos)
}

func TestAddRepository(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(runner)

	err := client.AddRepository(context.Background(), "spark-repo", "https://example.com/stub-universe.json")
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"package", "repo", "add", "spark-repo", "https://example.com/stub-universe.json"}, runner.calls[0])
}

func TestCommandErrorSurfacesStderr(t *testing.T) {
	cmdErr := &CommandError{
		Args:     []string{"spark", "quota", "remove", "team-role"},
		ExitCode: 1,
		Stderr:   "quota not found",
	}
	runner := &fakeRunner{err: cmdErr}
	client := newTestClient(runner)

	err := client.RemoveQuota(context.Background(), "team-role")
	require.Error(t, err)

	var got *CommandError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 1, got.ExitCode)
	assert.Contains(t, err.Error(), "quota not found")
}
