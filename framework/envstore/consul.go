package envstore

import (
	consul "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

// ConsulStore keeps each key in the Consul KV store under a prefix.
type ConsulStore struct {
	consul *consul.Client
	prefix string
}

func NewConsulStore(client *consul.Client, prefix string) *ConsulStore {
	return &ConsulStore{consul: client, prefix: prefix}
}

func (c *ConsulStore) fullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + "/" + key
}

func (c *ConsulStore) Write(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := c.consul.KV().Put(&consul.KVPair{Key: c.fullKey(key), Value: data}, nil); err != nil {
		return errors.Wrapf(err, "could not write %q to consul", key)
	}
	return nil
}

func (c *ConsulStore) Read(key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	pair, _, err := c.consul.KV().Get(c.fullKey(key), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %q from consul", key)
	}
	if pair == nil {
		return nil, errors.Wrapf(ErrNotFound, "%q", key)
	}
	return pair.Value, nil
}
