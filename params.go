package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/systest/driver/driver"
	"github.com/systest/driver/framework/farm"
	"github.com/systest/driver/framework/opt"
	"github.com/systest/driver/framework/pot"
)

const (
	defaultPotTimeout = 30 * time.Minute
	publicKeySuffix   = ".pub"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML or TOML file with default values for any of the other flags, keyed by flag name",
	}
	jobIDFlag = &cli.StringFlag{
		Name:  "job-id",
		Usage: "identifier of this run (default: <hostname>-<start time>)",
	}
	randSeedFlag = &cli.StringFlag{
		Name:  "rand-seed",
		Value: "0",
		Usage: "seed of the run's random number generator",
	}
	farmBaseURLFlag = &cli.StringFlag{
		Name:  "farm-base-url",
		Usage: "base URL of Farm (default: " + farm.DefaultBaseURL + ")",
	}
	farmGroupNameFlag = &cli.StringFlag{
		Name:  "farm-group-name",
		Usage: "name of the Farm group for this run (default: the job id)",
	}
	logBaseDirFlag = &cli.StringFlag{
		Name:  "log-base-dir",
		Usage: "write one log file per test under this directory",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Value: "info",
		Usage: "minimum level of console log records",
	}
	potTimeoutFlag = &cli.StringFlag{
		Name:  "pot-timeout",
		Value: defaultPotTimeout.String(),
		Usage: "maximum duration of a pot",
	}
	workingDirFlag = &cli.StringFlag{
		Name:  "working-dir",
		Value: ".",
		Usage: "directory for files created during the run",
	}
	baseImgURLFlag = &cli.StringFlag{
		Name:  "base-img-url",
		Usage: "URL of the disk image the VMs boot from",
	}
	baseImgSHA256Flag = &cli.StringFlag{
		Name:  "base-img-sha256",
		Usage: "SHA-256 of the disk image",
	}
	initialReplicaVersionFlag = &cli.StringFlag{
		Name:  "initial-replica-version",
		Usage: "replica version the VMs start with",
	}
	journalbeatHostsFlag = &cli.StringSliceFlag{
		Name:  "journalbeat-hosts",
		Usage: "host:port of a journalbeat endpoint (repeatable)",
	}
	logDebugOverridesFlag = &cli.StringSliceFlag{
		Name:  "log-debug-overrides",
		Usage: "module path whose replica logs are enabled at debug level (repeatable)",
	}
	authorizedSSHAccountsFlag = &cli.StringFlag{
		Name:  "authorized-ssh-accounts",
		Usage: "directory of <account>" + publicKeySuffix + " files to install on every VM",
	}
	nnsCanisterPathFlag = &cli.StringFlag{
		Name:  "nns-canister-path",
		Usage: "directory containing the NNS canister wasm files",
	}
	envStoreFlag = &cli.StringFlag{
		Name:  "env-store",
		Usage: "environment store location, a directory or a redis://, consul://, dynamodb:// or mem:// URL (default: <working-dir>/env)",
	}
	metricsFileFlag = &cli.StringFlag{
		Name:  "metrics-file",
		Usage: "write log pipeline metrics to this file in Prometheus text format at exit",
	}
	runFlag = &cli.StringSliceFlag{
		Name:  "run",
		Usage: "regex pattern(s) to select tests to run",
	}
	skipFlag = &cli.StringSliceFlag{
		Name:  "skip",
		Usage: "regex pattern(s) to select tests not to run",
	}
)

var allFlags = []cli.Flag{ //nolint:gochecknoglobals
	configFlag,
	jobIDFlag,
	randSeedFlag,
	farmBaseURLFlag,
	farmGroupNameFlag,
	logBaseDirFlag,
	logLevelFlag,
	potTimeoutFlag,
	workingDirFlag,
	baseImgURLFlag,
	baseImgSHA256Flag,
	initialReplicaVersionFlag,
	journalbeatHostsFlag,
	logDebugOverridesFlag,
	authorizedSSHAccountsFlag,
	nnsCanisterPathFlag,
	envStoreFlag,
	metricsFileFlag,
	runFlag,
	skipFlag,
}

type commandParams struct {
	jobID                 string
	randSeed              string
	farmBaseURL           string
	farmGroupName         string
	logBaseDir            string
	logLevel              string
	potTimeout            string
	workingDir            string
	baseImgURL            string
	baseImgSHA256         string
	initialReplicaVersion string
	journalbeatHosts      []string
	logDebugOverrides     []string
	authorizedSSHAccounts string
	nnsCanisterPath       string
	envStore              string
	metricsFile           string
	filters               pot.RegexFilters
}

// Read parses the command line. It returns false without an error if only help was requested.
func (c *commandParams) Read(args []string, out io.Writer) (bool, error) {
	parsed := false
	app := &cli.App{
		Name:           "prod-test-driver",
		Usage:          "bootstraps a system test run and checks its environment",
		Flags:          allFlags,
		Writer:         out,
		ErrWriter:      out,
		HideVersion:    true,
		ExitErrHandler: func(*cli.Context, error) {},
		Action: func(ctx *cli.Context) error {
			if err := applyConfigFile(ctx); err != nil {
				return err
			}
			if err := c.load(ctx); err != nil {
				return err
			}
			parsed = true
			return nil
		},
	}
	if err := app.Run(args); err != nil {
		return false, err
	}
	return parsed, nil
}

func (c *commandParams) load(ctx *cli.Context) error {
	c.jobID = ctx.String(jobIDFlag.Name)
	c.randSeed = ctx.String(randSeedFlag.Name)
	c.farmBaseURL = ctx.String(farmBaseURLFlag.Name)
	c.farmGroupName = ctx.String(farmGroupNameFlag.Name)
	c.logBaseDir = ctx.String(logBaseDirFlag.Name)
	c.logLevel = ctx.String(logLevelFlag.Name)
	c.potTimeout = ctx.String(potTimeoutFlag.Name)
	c.workingDir = ctx.String(workingDirFlag.Name)
	c.baseImgURL = ctx.String(baseImgURLFlag.Name)
	c.baseImgSHA256 = ctx.String(baseImgSHA256Flag.Name)
	c.initialReplicaVersion = ctx.String(initialReplicaVersionFlag.Name)
	c.journalbeatHosts = ctx.StringSlice(journalbeatHostsFlag.Name)
	c.logDebugOverrides = ctx.StringSlice(logDebugOverridesFlag.Name)
	c.authorizedSSHAccounts = ctx.String(authorizedSSHAccountsFlag.Name)
	c.nnsCanisterPath = ctx.String(nnsCanisterPathFlag.Name)
	c.envStore = ctx.String(envStoreFlag.Name)
	c.metricsFile = ctx.String(metricsFileFlag.Name)
	for _, p := range ctx.StringSlice(runFlag.Name) {
		if err := c.filters.MustMatch.Add(p); err != nil {
			return errors.Wrapf(driver.ErrInvalidArgs, "--run %q: %v", p, err)
		}
	}
	for _, p := range ctx.StringSlice(skipFlag.Name) {
		if err := c.filters.MustNotMatch.Add(p); err != nil {
			return errors.Wrapf(driver.ErrInvalidArgs, "--skip %q: %v", p, err)
		}
	}
	return nil
}

// applyConfigFile copies the values of the --config file into every flag that was not given on
// the command line.
func applyConfigFile(ctx *cli.Context) error {
	path := ctx.String(configFlag.Name)
	if path == "" {
		return nil
	}
	values, err := readConfigFile(path)
	if err != nil {
		return err
	}
	known := make(map[string]bool)
	for _, f := range allFlags {
		known[f.Names()[0]] = true
	}
	for name, value := range values {
		if !known[name] || name == configFlag.Name {
			return errors.Wrapf(driver.ErrInvalidArgs, "unknown setting %q in %s", name, path)
		}
		if ctx.IsSet(name) {
			continue
		}
		items, ok := value.([]interface{})
		if !ok {
			items = []interface{}{value}
		}
		for _, item := range items {
			if err := ctx.Set(name, fmt.Sprint(item)); err != nil {
				return errors.Wrapf(driver.ErrInvalidArgs, "setting %q in %s: %v", name, path, err)
			}
		}
	}
	return nil
}

func readConfigFile(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read config file")
	}
	values := make(map[string]interface{})
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &values)
	case ".toml":
		err = toml.Unmarshal(data, &values)
	default:
		return nil, errors.Wrapf(driver.ErrInvalidArgs, "config file %s is neither .yaml nor .toml", path)
	}
	if err != nil {
		return nil, errors.Wrapf(driver.ErrInvalidArgs, "config file %s: %v", path, err)
	}
	return values, nil
}

// Validate turns the raw flag values into driver.ValidatedArgs. Every malformed value is
// reported as driver.ErrInvalidArgs.
func (c *commandParams) Validate() (driver.ValidatedArgs, error) {
	var args driver.ValidatedArgs
	invalid := func(flag *cli.StringFlag, value string, err error) error {
		return errors.Wrapf(driver.ErrInvalidArgs, "--%s %q: %v", flag.Name, value, err)
	}

	seed, err := strconv.ParseUint(c.randSeed, 10, 64)
	if err != nil {
		return args, invalid(randSeedFlag, c.randSeed, err)
	}
	args.RandSeed = seed

	if c.farmBaseURL != "" {
		u, err := farm.ParseBaseURL(c.farmBaseURL)
		if err != nil {
			return args, invalid(farmBaseURLFlag, c.farmBaseURL, err)
		}
		args.FarmBaseURL = opt.Some(u)
	}

	if c.baseImgURL != "" {
		u, err := parseAbsoluteURL(c.baseImgURL)
		if err != nil {
			return args, invalid(baseImgURLFlag, c.baseImgURL, err)
		}
		args.BaseImgURL = u
	}

	level, err := zapcore.ParseLevel(c.logLevel)
	if err != nil {
		return args, invalid(logLevelFlag, c.logLevel, err)
	}
	args.LogLevel = level

	timeout, err := time.ParseDuration(c.potTimeout)
	if err != nil {
		return args, invalid(potTimeoutFlag, c.potTimeout, err)
	}
	if timeout <= 0 {
		return args, invalid(potTimeoutFlag, c.potTimeout, errors.New("must be positive"))
	}
	args.PotTimeout = timeout

	if c.authorizedSSHAccounts != "" {
		accounts, err := readAuthorizedSSHAccounts(c.authorizedSSHAccounts)
		if err != nil {
			return args, invalid(authorizedSSHAccountsFlag, c.authorizedSSHAccounts, err)
		}
		args.AuthorizedSSHAccounts = accounts
	}

	args.JobID = opt.NonEmpty(c.jobID)
	args.FarmGroupName = opt.NonEmpty(c.farmGroupName)
	args.LogsBaseDir = opt.NonEmpty(c.logBaseDir)
	args.NNSCanisterPath = opt.NonEmpty(c.nnsCanisterPath)
	args.WorkingDir = c.workingDir
	args.BaseImgSHA256 = c.baseImgSHA256
	args.InitialReplicaVersion = c.initialReplicaVersion
	args.JournalbeatHosts = c.journalbeatHosts
	args.LogDebugOverrides = c.logDebugOverrides
	return args, nil
}

// envStoreLocation is --env-store, or the env directory below the working directory.
func (c *commandParams) envStoreLocation() string {
	if c.envStore != "" {
		return c.envStore
	}
	return filepath.Join(c.workingDir, "env")
}

// readAuthorizedSSHAccounts reads every <account>.pub file in dir, in name order.
func readAuthorizedSSHAccounts(dir string) ([]driver.AuthorizedSSHAccount, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var accounts []driver.AuthorizedSSHAccount
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), publicKeySuffix) {
			continue
		}
		key, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, driver.AuthorizedSSHAccount{
			Name:      strings.TrimSuffix(e.Name(), publicKeySuffix),
			PublicKey: key,
		})
	}
	return accounts, nil
}

func parseAbsoluteURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, errors.New("not an absolute URL")
	}
	return u, nil
}
