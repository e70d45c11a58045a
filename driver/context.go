package driver

import (
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/exp/rand"

	"github.com/systest/driver/framework"
	"github.com/systest/driver/framework/envstore"
	"github.com/systest/driver/framework/farm"
	"github.com/systest/driver/framework/logging"
	"github.com/systest/driver/framework/opt"
)

const jobIDTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrInvalidArgs is returned for command-line values that cannot be used to start a run.
var ErrInvalidArgs = errors.New("invalid arguments")

// DriverContext is everything a pot needs from the driver. It is created once per run by
// ContextBuilder and is read-only afterwards, except for RNG.
type DriverContext struct {
	// Logger is the root logger. Its console pipeline drops records rather than block.
	Logger *logging.Logger
	// RNG is not safe for concurrent use. Give every concurrent consumer its own SubRNG.
	RNG         *rand.Rand
	CreatedAt   time.Time
	JobID       string
	Farm        *farm.Farm
	LogsBaseDir opt.Maybe[string]
	PotTimeout  time.Duration
	Env         envstore.Store
	WorkingDir  string

	metrics *logging.Metrics
}

// SubRNG returns a new generator seeded from the context's own stream, so that runs with the same
// seed hand out the same child generators in the same order.
func (c *DriverContext) SubRNG() *rand.Rand {
	return NewRNG(c.RNG.Uint64())
}

// TeeLogger returns the logger for the test at path. See logging.NewTeeLogger.
func (c *DriverContext) TeeLogger(path framework.TestPath) (*logging.Logger, error) {
	return logging.NewTeeLogger(c.Logger, path, c.LogsBaseDir, logging.WithMetrics(c.metrics))
}

// Close drains the root logger.
func (c *DriverContext) Close() error {
	return c.Logger.Close()
}

// ContextBuilder creates a DriverContext. The zero value writes the console to os.Stdout and
// uses the system clock; Env must be set.
type ContextBuilder struct {
	Env      envstore.Store
	Hostname opt.Maybe[string]

	// Console replaces the console destination of the root logger.
	Console zapcore.Core
	// Metrics, if set, counts the records of every pipeline the context creates.
	Metrics *logging.Metrics
	// Now replaces time.Now.
	Now func() time.Time
}

// BuildContext creates a DriverContext with default console and clock.
func BuildContext(args ValidatedArgs, env envstore.Store, hostname opt.Maybe[string]) (*DriverContext, error) {
	return ContextBuilder{Env: env, Hostname: hostname}.Build(args)
}

// Build creates the root logger, persists the run's configuration into the environment store and
// returns the resulting context. If the store cannot be written the root logger is closed again
// and the error is returned.
func (b ContextBuilder) Build(args ValidatedArgs) (*DriverContext, error) {
	if b.Env == nil {
		return nil, errors.New("no environment store")
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	createdAt := now()
	jobID := args.JobID.OrElse(JobID(b.Hostname, createdAt))

	console := b.Console
	if console == nil {
		console = logging.NewConsoleCore(os.Stdout, args.LogLevel)
	}
	root := logging.NewRootLogger(console, logging.WithMetrics(b.Metrics))

	var farmURL *url.URL
	if args.FarmBaseURL.IsDefined() {
		farmURL = args.FarmBaseURL.Value()
	} else {
		farmURL = farm.DefaultURL()
	}
	groupName := args.FarmGroupName.OrElse(jobID)

	if err := InitializeEnv(b.Env, args, groupName, farmURL); err != nil {
		_ = root.Close()
		return nil, errors.Wrap(err, "failed to initialize environment store")
	}

	if !args.NNSCanisterPath.IsDefined() {
		root.Warn("no NNS canister path given; pots that install the NNS will fail")
	}
	root.Info("driver context created",
		zap.String("job_id", jobID),
		zap.String("farm_group", groupName),
		zap.Stringer("farm_url", farmURL),
		zap.Uint64("seed", args.RandSeed),
	)

	return &DriverContext{
		Logger:      root,
		RNG:         NewRNG(args.RandSeed),
		CreatedAt:   createdAt,
		JobID:       jobID,
		Farm:        farm.New(farmURL, root.Logger),
		LogsBaseDir: args.LogsBaseDir,
		PotTimeout:  args.PotTimeout,
		Env:         b.Env,
		WorkingDir:  args.WorkingDir,
		metrics:     b.Metrics,
	}, nil
}

// JobID derives a job id from the hostname and the time the run started, for example
// "ci-runner-1-2021-05-04T10:11:12.123Z".
func JobID(hostname opt.Maybe[string], createdAt time.Time) string {
	ts := createdAt.UTC().Format(jobIDTimeFormat)
	if !hostname.IsDefined() {
		return ts
	}
	return hostname.Value() + "-" + ts
}

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
