package driver

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/systest/driver/framework/envstore"
)

// Keys of the values written into the environment store during bootstrap.
const (
	FarmGroupNameKey            = "farm/group_name"
	FarmBaseURLKey              = "farm/base_url"
	BaseImgURLKey               = "base_img_url"
	BaseImgSHA256Key            = "base_img_sha256"
	InitialReplicaVersionKey    = "initial_replica_version"
	JournalbeatHostsKey         = "journalbeat_hosts"
	LogDebugOverridesKey        = "log_debug_overrides"
	AuthorizedSSHAccountsKey    = "ssh/authorized_accounts"
	AuthorizedSSHAccountsDirKey = "ssh/authorized_accounts_dir"
	PotTimeoutKey               = "pot_timeout"
)

// InitializeEnv writes the run's configuration into env. It stops at the first failed write.
func InitializeEnv(env envstore.Store, args ValidatedArgs, groupName string, farmURL *url.URL) error {
	values := []struct {
		key   string
		value interface{}
	}{
		{FarmGroupNameKey, groupName},
		{FarmBaseURLKey, farmURL.String()},
		{AuthorizedSSHAccountsKey, nonNil(args.AuthorizedSSHAccounts)},
		{BaseImgURLKey, urlString(args.BaseImgURL)},
		{BaseImgSHA256Key, args.BaseImgSHA256},
		{JournalbeatHostsKey, nonNil(args.JournalbeatHosts)},
		{InitialReplicaVersionKey, args.InitialReplicaVersion},
		{LogDebugOverridesKey, nonNil(args.LogDebugOverrides)},
		{PotTimeoutKey, args.PotTimeout.String()},
	}
	for _, v := range values {
		if err := envstore.WriteObject(env, v.key, v.value); err != nil {
			return errors.Wrapf(err, "could not initialize %s", v.key)
		}
	}
	return setUpSSHKeyDir(env, args.AuthorizedSSHAccounts)
}

// setUpSSHKeyDir writes one entry per account, holding its public key exactly as the VM
// bootstrap script expects to find it.
func setUpSSHKeyDir(env envstore.Store, accounts []AuthorizedSSHAccount) error {
	for _, account := range accounts {
		key := envstore.JoinKey(AuthorizedSSHAccountsDirKey, account.Name)
		if err := env.Write(key, account.PublicKey); err != nil {
			return errors.Wrapf(err, "could not write public key of %q", account.Name)
		}
	}
	return nil
}

func urlString(u *url.URL) interface{} {
	if u == nil {
		return nil
	}
	return u.String()
}

// Empty lists are stored as [] rather than null.
func nonNil[V any](s []V) []V {
	if s == nil {
		return []V{}
	}
	return s
}
