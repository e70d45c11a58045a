package driver

import (
	"net/url"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/systest/driver/framework/opt"
)

// AuthorizedSSHAccount is an account whose public key is installed on every VM of the run.
type AuthorizedSSHAccount struct {
	Name      string `json:"name"`
	PublicKey []byte `json:"public_key"`
}

// ValidatedArgs is the command line after parsing and validation. Construction code may rely on
// every field being well-formed.
type ValidatedArgs struct {
	// JobID identifies the run. If undefined, one is derived from the hostname and start time.
	JobID opt.Maybe[string]
	// RandSeed seeds the run's random number generator.
	RandSeed uint64
	// FarmBaseURL defaults to farm.DefaultBaseURL.
	FarmBaseURL opt.Maybe[*url.URL]
	// FarmGroupName defaults to the job id.
	FarmGroupName opt.Maybe[string]
	// LogsBaseDir enables one log file per test under this directory.
	LogsBaseDir opt.Maybe[string]
	// LogLevel is the minimum level of the console.
	LogLevel   zapcore.Level
	PotTimeout time.Duration
	WorkingDir string

	BaseImgURL            *url.URL
	BaseImgSHA256         string
	InitialReplicaVersion string
	JournalbeatHosts      []string
	LogDebugOverrides     []string
	AuthorizedSSHAccounts []AuthorizedSSHAccount

	// NNSCanisterPath points at the NNS canister wasm files. Pots that install the NNS need it.
	NNSCanisterPath opt.Maybe[string]
}
