package farm

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultURL(t *testing.T) {
	assert.Equal(t, "https://farm.dfinity.systems", DefaultURL().String())
}

func TestParseBaseURL(t *testing.T) {
	u, err := ParseBaseURL("http://farm.local:8080/api")
	require.NoError(t, err)
	assert.Equal(t, "farm.local:8080", u.Host)

	for _, bad := range []string{"", "farm.local", "ftp://farm.local", "https://", "http://[::1"} {
		_, err := ParseBaseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestFarmURLs(t *testing.T) {
	base, _ := url.Parse("https://farm.example.com/v1")
	f := New(base, nil)

	assert.Equal(t, "https://farm.example.com/v1", f.BaseURL().String())
	assert.Equal(t, "https://farm.example.com/v1/group/job-1", f.GroupURL("job-1").String())
	assert.Equal(t, "https://farm.example.com/v1/group/job-1/vm/node-0", f.VMURL("job-1", "node-0").String())
}

func TestFarmIsNotAffectedByCallerChanges(t *testing.T) {
	base, _ := url.Parse("https://farm.example.com")
	f := New(base, nil)
	base.Host = "elsewhere"
	f.BaseURL().Host = "elsewhere"
	assert.Equal(t, "farm.example.com", f.BaseURL().Host)
}

func TestFarmLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	f := New(DefaultURL(), zap.New(core))
	f.Logger().Info("allocating")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "farm", logs.All()[0].LoggerName)

	assert.NotNil(t, New(DefaultURL(), nil).Logger())
}
