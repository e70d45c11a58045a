package pot

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/systest/driver/framework"
)

// Filter determines whether to run a specific test.
type Filter interface {
	Match(framework.TestPath) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(framework.TestPath) bool

func (f FilterFunc) Match(path framework.TestPath) bool { return f(path) }

// RegexFilters selects tests with the --run and --skip patterns.
type RegexFilters struct {
	MustMatch    PathPatternList
	MustNotMatch PathPatternList
}

func (r RegexFilters) Match(path framework.TestPath) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.AnyMatch(path, true)) &&
		!r.MustNotMatch.AnyMatch(path, false)
}

// Describe explains the filters in one line each, or returns nil if there are none.
func (r RegexFilters) Describe() []string {
	var ret []string
	if r.MustMatch.IsDefined() {
		ret = append(ret, "skip any not matching "+r.MustMatch.String())
	}
	if r.MustNotMatch.IsDefined() {
		ret = append(ret, "skip any matching "+r.MustNotMatch.String())
	}
	return ret
}

// PathPattern matches a test path segment by segment; "pot1/basic" matches every test whose
// first segment matches "pot1" and second matches "basic".
type PathPattern []*regexp.Regexp

// Match reports whether the pattern matches path. With includeParents, a path shorter than the
// pattern matches if its segments do, so that the parents of a selected test also run.
func (p PathPattern) Match(path framework.TestPath, includeParents bool) bool {
	n := len(p)
	if n > len(path) {
		if !includeParents {
			return false
		}
		n = len(path)
	}
	for i := 0; i < n; i++ {
		if !p[i].MatchString(path[i]) {
			return false
		}
	}
	return true
}

func (p PathPattern) String() string {
	ss := make([]string, 0, len(p))
	for _, c := range p {
		ss = append(ss, c.String())
	}
	return strings.Join(ss, "/")
}

func ParsePathPattern(s string) (PathPattern, error) {
	parts := strings.Split(s, "/")
	ret := make(PathPattern, 0, len(parts))
	for _, part := range parts {
		rx, err := regexp.Compile(part)
		if err != nil {
			return nil, errors.Wrap(err, "invalid regex")
		}
		ret = append(ret, rx)
	}
	return ret, nil
}

type PathPatternList []PathPattern

func (l PathPatternList) String() string {
	ss := make([]string, 0, len(l))
	for _, p := range l {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Add parses value and appends it to the list.
func (l *PathPatternList) Add(value string) error {
	p, err := ParsePathPattern(value)
	if err != nil {
		return err
	}
	*l = append(*l, p)
	return nil
}

func (l PathPatternList) IsDefined() bool {
	return len(l) != 0
}

func (l PathPatternList) AnyMatch(path framework.TestPath, includeParents bool) bool {
	for _, p := range l {
		if p.Match(path, includeParents) {
			return true
		}
	}
	return false
}
