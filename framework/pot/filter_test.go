package pot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systest/driver/framework"
)

type regexFilterTestParams struct {
	run         []string
	skip        []string
	path        framework.TestPath
	shouldMatch bool
}

func TestRegexFilters(t *testing.T) {
	allParams := []regexFilterTestParams{
		// matches everything by default
		{nil, nil, framework.TestPath(nil), true},
		{nil, nil, framework.TestPath{"a", "b"}, true},

		// --run with multiple components selects parents too
		{[]string{"pot1/basic"}, nil, framework.TestPath{"pot1"}, true},
		{[]string{"pot1/basic"}, nil, framework.TestPath{"pot1", "basic", "connectivity"}, true},
		{[]string{"pot1/basic"}, nil, framework.TestPath{"pot1", "upgrade"}, false},
		{[]string{"pot1/basic"}, nil, framework.TestPath{"pot2"}, false},

		// --run with multiple patterns
		{[]string{"a", "b"}, nil, framework.TestPath{"a"}, true},
		{[]string{"a", "b"}, nil, framework.TestPath{"c"}, false},

		// --skip does not apply to parents of the skipped path
		{nil, []string{"a/b"}, framework.TestPath{"a"}, true},
		{nil, []string{"a/b"}, framework.TestPath{"a", "b"}, false},
		{nil, []string{"a/b"}, framework.TestPath{"a", "b", "c"}, false},
		{nil, []string{"a/b"}, framework.TestPath{"a", "c"}, true},

		// --skip overrides --run
		{[]string{"y"}, []string{"n"}, framework.TestPath{"y"}, true},
		{[]string{"y"}, []string{"n"}, framework.TestPath{"yn"}, false},
	}
	for _, params := range allParams {
		var r RegexFilters
		for _, s := range params.run {
			require.NoError(t, r.MustMatch.Add(s))
		}
		for _, s := range params.skip {
			require.NoError(t, r.MustNotMatch.Add(s))
		}
		t.Run(fmt.Sprintf("run=%s, skip=%s, path=%s", r.MustMatch, r.MustNotMatch, params.path), func(t *testing.T) {
			assert.Equal(t, params.shouldMatch, r.Match(params.path))
		})
	}
}

func TestPathPatternListRejectsBadRegex(t *testing.T) {
	var l PathPatternList
	assert.Error(t, l.Add("a/(b"))
	assert.False(t, l.IsDefined())
}

func TestRegexFiltersDescribe(t *testing.T) {
	var r RegexFilters
	assert.Nil(t, r.Describe())

	require.NoError(t, r.MustMatch.Add("pot1"))
	require.NoError(t, r.MustNotMatch.Add("pot1/slow"))
	require.NoError(t, r.MustNotMatch.Add("flaky"))
	assert.Equal(t, []string{
		`skip any not matching "pot1"`,
		`skip any matching "pot1/slow" or "flaky"`,
	}, r.Describe())
}
