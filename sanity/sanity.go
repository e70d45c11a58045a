package sanity

import (
	"os"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/systest/driver/driver"
	"github.com/systest/driver/framework/envstore"
	"github.com/systest/driver/framework/farm"
	"github.com/systest/driver/framework/pot"
)

// PotName is the first segment of the path of every test in this pot.
const PotName = "sanity"

// RunSanityPot runs the sanity pot against ctx. Each test logs through ctx.TeeLogger.
func RunSanityPot(ctx *driver.DriverContext, filter pot.Filter, testLogger pot.TestLogger) pot.Results {
	config := pot.TestConfiguration{
		Filter:     filter,
		TestLogger: testLogger,
		RootLogger: ctx.Logger.Logger,
		NewLogger:  ctx.TeeLogger,
	}
	return pot.Run(config, func(t *pot.T) {
		t.Run(PotName, func(t *pot.T) {
			doSanityTests(t, ctx)
		})
	})
}

func doSanityTests(t *pot.T, ctx *driver.DriverContext) {
	t.Run("environment", func(t *pot.T) { doEnvironmentTests(t, ctx) })
	t.Run("farm", func(t *pot.T) { doFarmTests(t, ctx) })
	t.Run("logging", func(t *pot.T) { doLoggingTests(t, ctx) })
}

func doEnvironmentTests(t *pot.T, ctx *driver.DriverContext) {
	t.Run("group name", func(t *pot.T) {
		var group string
		require.NoError(t, envstore.ReadObject(ctx.Env, driver.FarmGroupNameKey, &group))
		assert.NotEmpty(t, group)
		t.Logger().Debug("farm group", zap.String("group", group))
	})

	t.Run("scalar values", func(t *pot.T) {
		for _, key := range []string{
			driver.BaseImgSHA256Key,
			driver.InitialReplicaVersionKey,
			driver.PotTimeoutKey,
		} {
			var value string
			assert.NoError(t, envstore.ReadObject(ctx.Env, key, &value), "key %s", key)
		}
		var baseImgURL *string
		assert.NoError(t, envstore.ReadObject(ctx.Env, driver.BaseImgURLKey, &baseImgURL))
	})

	t.Run("lists", func(t *pot.T) {
		for _, key := range []string{driver.JournalbeatHostsKey, driver.LogDebugOverridesKey} {
			var values []string
			assert.NoError(t, envstore.ReadObject(ctx.Env, key, &values), "key %s", key)
		}
	})

	t.Run("ssh accounts", func(t *pot.T) {
		var accounts []driver.AuthorizedSSHAccount
		require.NoError(t, envstore.ReadObject(ctx.Env, driver.AuthorizedSSHAccountsKey, &accounts))
		for _, account := range accounts {
			key := envstore.JoinKey(driver.AuthorizedSSHAccountsDirKey, account.Name)
			data, err := ctx.Env.Read(key)
			if assert.NoError(t, err, "public key of %s", account.Name) {
				assert.Equal(t, account.PublicKey, data, "public key of %s", account.Name)
			}
		}
		t.Logger().Debug("authorized accounts", zap.Int("count", len(accounts)))
	})
}

func doFarmTests(t *pot.T, ctx *driver.DriverContext) {
	t.Run("base url", func(t *pot.T) {
		var stored string
		require.NoError(t, envstore.ReadObject(ctx.Env, driver.FarmBaseURLKey, &stored))
		parsed, err := farm.ParseBaseURL(stored)
		require.NoError(t, err)
		assert.Equal(t, ctx.Farm.BaseURL().String(), parsed.String())
	})

	t.Run("group url", func(t *pot.T) {
		var group string
		require.NoError(t, envstore.ReadObject(ctx.Env, driver.FarmGroupNameKey, &group))
		u := ctx.Farm.GroupURL(group)
		assert.Equal(t, ctx.Farm.BaseURL().Host, u.Host)
		t.Logger().Debug("farm group resource", zap.Stringer("url", u))
	})
}

func doLoggingTests(t *pot.T, ctx *driver.DriverContext) {
	t.Run("log file", func(t *pot.T) {
		if !ctx.LogsBaseDir.IsDefined() {
			t.SkipWithReason("no logs directory")
		}
		t.Logger().Info("checking the log file of this test")
		path, err := t.Path().LogFilePath(ctx.LogsBaseDir.Value())
		require.NoError(t, err)
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})
}
