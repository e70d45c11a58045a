package envstore

import (
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	consul "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Open returns the store described by dsn:
//
//	/some/dir, file:///some/dir      DirStore
//	mem://                           MemoryStore
//	redis://host:6379/0              RedisStore with DefaultRedisPrefix
//	consul://host:8500/prefix        ConsulStore
//	dynamodb://table?region=r&endpoint=http://host:8000
//	                                 DynamoDBStore
func Open(dsn string) (Store, error) {
	if !strings.Contains(dsn, "://") {
		if dsn == "" {
			return nil, errors.New("environment store location is empty")
		}
		return NewDirStore(dsn), nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid environment store location %q", dsn)
	}
	switch u.Scheme {
	case "file":
		return NewDirStore(u.Path), nil
	case "mem":
		return NewMemoryStore(), nil
	case "redis", "rediss":
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "invalid redis location")
		}
		return NewRedisStore(redis.NewClient(opts), DefaultRedisPrefix), nil
	case "consul":
		config := consul.DefaultConfig()
		config.Address = u.Host
		client, err := consul.NewClient(config)
		if err != nil {
			return nil, errors.Wrap(err, "could not create consul client")
		}
		return NewConsulStore(client, strings.Trim(u.Path, "/")), nil
	case "dynamodb":
		if u.Host == "" {
			return nil, errors.Errorf("no table name in %q", dsn)
		}
		config := aws.NewConfig()
		if region := u.Query().Get("region"); region != "" {
			config = config.WithRegion(region)
		}
		if endpoint := u.Query().Get("endpoint"); endpoint != "" {
			config = config.WithEndpoint(endpoint)
		}
		sess, err := session.NewSession(config)
		if err != nil {
			return nil, errors.Wrap(err, "could not create AWS session")
		}
		return NewDynamoDBStore(dynamodb.New(sess), u.Host), nil
	default:
		return nil, errors.Errorf("unsupported environment store scheme %q", u.Scheme)
	}
}
