package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/systest/driver/driver"
	"github.com/systest/driver/framework"
)

func readParams(t *testing.T, args ...string) commandParams {
	t.Helper()
	var params commandParams
	ok, err := params.Read(append([]string{"prod-test-driver"}, args...), io.Discard)
	require.NoError(t, err)
	require.True(t, ok)
	return params
}

func validate(t *testing.T, args ...string) driver.ValidatedArgs {
	t.Helper()
	params := readParams(t, args...)
	validated, err := params.Validate()
	require.NoError(t, err)
	return validated
}

func TestDefaults(t *testing.T) {
	args := validate(t)

	assert.False(t, args.JobID.IsDefined())
	assert.False(t, args.FarmBaseURL.IsDefined())
	assert.False(t, args.FarmGroupName.IsDefined())
	assert.False(t, args.LogsBaseDir.IsDefined())
	assert.False(t, args.NNSCanisterPath.IsDefined())
	assert.Equal(t, uint64(0), args.RandSeed)
	assert.Equal(t, zapcore.InfoLevel, args.LogLevel)
	assert.Equal(t, defaultPotTimeout, args.PotTimeout)
	assert.Equal(t, ".", args.WorkingDir)
	assert.Nil(t, args.BaseImgURL)
}

func TestFlags(t *testing.T) {
	args := validate(t,
		"--job-id", "job-1",
		"--rand-seed", "18446744073709551615",
		"--farm-base-url", "http://localhost:8080",
		"--farm-group-name", "group-1",
		"--log-base-dir", "/logs",
		"--log-level", "debug",
		"--pot-timeout", "5m",
		"--working-dir", "/work",
		"--base-img-url", "https://images.example/img.tar.zst",
		"--base-img-sha256", "abc",
		"--initial-replica-version", "v1",
		"--journalbeat-hosts", "a:443",
		"--journalbeat-hosts", "b:443",
		"--log-debug-overrides", "consensus",
		"--nns-canister-path", "/canisters",
	)

	assert.Equal(t, "job-1", args.JobID.Value())
	assert.Equal(t, uint64(18446744073709551615), args.RandSeed)
	assert.Equal(t, "http://localhost:8080", args.FarmBaseURL.Value().String())
	assert.Equal(t, "group-1", args.FarmGroupName.Value())
	assert.Equal(t, "/logs", args.LogsBaseDir.Value())
	assert.Equal(t, zapcore.DebugLevel, args.LogLevel)
	assert.Equal(t, 5*time.Minute, args.PotTimeout)
	assert.Equal(t, "/work", args.WorkingDir)
	assert.Equal(t, "https://images.example/img.tar.zst", args.BaseImgURL.String())
	assert.Equal(t, "abc", args.BaseImgSHA256)
	assert.Equal(t, "v1", args.InitialReplicaVersion)
	assert.Equal(t, []string{"a:443", "b:443"}, args.JournalbeatHosts)
	assert.Equal(t, []string{"consensus"}, args.LogDebugOverrides)
	assert.Equal(t, "/canisters", args.NNSCanisterPath.Value())
}

func TestInvalidValues(t *testing.T) {
	for _, args := range [][]string{
		{"--rand-seed", "not-a-number"},
		{"--rand-seed", "-1"},
		{"--farm-base-url", "ftp://farm.example"},
		{"--farm-base-url", "not a url"},
		{"--base-img-url", "/relative/path"},
		{"--log-level", "loud"},
		{"--pot-timeout", "forever"},
		{"--pot-timeout", "0s"},
		{"--authorized-ssh-accounts", "/does/not/exist"},
	} {
		t.Run(args[0]+" "+args[1], func(t *testing.T) {
			params := readParams(t, args...)
			_, err := params.Validate()
			assert.True(t, errors.Is(err, driver.ErrInvalidArgs), "error was: %v", err)
		})
	}
}

func TestInvalidFilterPattern(t *testing.T) {
	var params commandParams
	_, err := params.Read([]string{"prod-test-driver", "--run", "("}, io.Discard)
	assert.True(t, errors.Is(err, driver.ErrInvalidArgs), "error was: %v", err)
}

func TestFilters(t *testing.T) {
	params := readParams(t, "--run", "sanity/farm", "--skip", "sanity/farm/group url")

	assert.True(t, params.filters.Match(framework.TestPath{"sanity", "farm", "base url"}))
	assert.False(t, params.filters.Match(framework.TestPath{"sanity", "farm", "group url"}))
	assert.False(t, params.filters.Match(framework.TestPath{"sanity", "environment"}))
}

func TestHelpDoesNotRun(t *testing.T) {
	var params commandParams
	ok, err := params.Read([]string{"prod-test-driver", "--help"}, io.Discard)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizedSSHAccounts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bob.pub"), []byte("ssh-ed25519 BBBB bob\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.pub"), []byte("ssh-ed25519 AAAA alice\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice"), []byte("private key"), 0o600))

	args := validate(t, "--authorized-ssh-accounts", dir)

	assert.Equal(t, []driver.AuthorizedSSHAccount{
		{Name: "alice", PublicKey: []byte("ssh-ed25519 AAAA alice\n")},
		{Name: "bob", PublicKey: []byte("ssh-ed25519 BBBB bob\n")},
	}, args.AuthorizedSSHAccounts)
}

func TestYAMLConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
job-id: from-file
rand-seed: 7
pot-timeout: 2m
journalbeat-hosts:
  - a:443
  - b:443
`), 0o600))

	args := validate(t, "--config", path, "--job-id", "from-flag")

	assert.Equal(t, "from-flag", args.JobID.Value())
	assert.Equal(t, uint64(7), args.RandSeed)
	assert.Equal(t, 2*time.Minute, args.PotTimeout)
	assert.Equal(t, []string{"a:443", "b:443"}, args.JournalbeatHosts)
}

func TestTOMLConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driver.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
rand-seed = 9
farm-base-url = "http://farm.local"
log-debug-overrides = ["consensus", "p2p"]
`), 0o600))

	args := validate(t, "--config", path)

	assert.Equal(t, uint64(9), args.RandSeed)
	assert.Equal(t, "http://farm.local", args.FarmBaseURL.Value().String())
	assert.Equal(t, []string{"consensus", "p2p"}, args.LogDebugOverrides)
}

func TestConfigFileErrors(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("no-such-flag: 1\n"), 0o600))
	badExt := filepath.Join(dir, "driver.json")
	require.NoError(t, os.WriteFile(badExt, []byte("{}"), 0o600))
	malformed := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(malformed, []byte("rand-seed = = 1"), 0o600))

	for _, path := range []string{unknown, badExt, malformed} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			var params commandParams
			_, err := params.Read([]string{"prod-test-driver", "--config", path}, io.Discard)
			assert.True(t, errors.Is(err, driver.ErrInvalidArgs), "error was: %v", err)
		})
	}
}

func TestEnvStoreLocation(t *testing.T) {
	workDirParams := readParams(t, "--working-dir", "/work")
	assert.Equal(t, filepath.Join("/work", "env"), workDirParams.envStoreLocation())
	memParams := readParams(t, "--env-store", "mem://")
	assert.Equal(t, "mem://", memParams.envStoreLocation())
}

func TestRunWritesEnvironmentAndMetrics(t *testing.T) {
	work := t.TempDir()
	metricsFile := filepath.Join(work, "driver.prom")
	params := readParams(t,
		"--working-dir", work,
		"--log-base-dir", filepath.Join(work, "logs"),
		"--log-level", "error",
		"--metrics-file", metricsFile,
	)

	results, err := run(params)
	require.NoError(t, err)
	assert.True(t, results.OK())

	_, err = os.Stat(filepath.Join(work, "env", "farm", "group_name"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(work, "logs", "sanity", "farm", "base url.log"))
	assert.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `driver_log_pipeline_records_total{outcome="delivered",policy="block"}`)
}
