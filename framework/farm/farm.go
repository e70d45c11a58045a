// Package farm holds the handle for Farm, the service that provisions the remote virtual
// machines a pot runs against. Only the handle lives here; the provisioning protocol is spoken
// by the code that consumes it.
package farm

import (
	"net/url"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultBaseURL is used when no Farm URL is configured.
const DefaultBaseURL = "https://farm.dfinity.systems"

// Farm is shared by every pot of a run. It is safe for concurrent use since it is never
// modified after New.
type Farm struct {
	baseURL *url.URL
	logger  *zap.Logger
}

// New creates a Farm handle. A nil logger is replaced with a no-op logger.
func New(baseURL *url.URL, logger *zap.Logger) *Farm {
	if logger == nil {
		logger = zap.NewNop()
	}
	copied := *baseURL
	return &Farm{baseURL: &copied, logger: logger.Named("farm")}
}

// DefaultURL returns DefaultBaseURL parsed.
func DefaultURL() *url.URL {
	u, err := url.Parse(DefaultBaseURL)
	if err != nil {
		panic(err) // constant input
	}
	return u
}

// ParseBaseURL accepts only absolute http or https URLs.
func ParseBaseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid farm URL %q", s)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Errorf("farm URL %q must be an absolute http(s) URL", s)
	}
	return u, nil
}

// BaseURL returns a copy of the base URL.
func (f *Farm) BaseURL() *url.URL {
	copied := *f.baseURL
	return &copied
}

// Logger returns the logger the Farm client code should use.
func (f *Farm) Logger() *zap.Logger { return f.logger }

// GroupURL is the resource of a group of VMs, base/group/<group>.
func (f *Farm) GroupURL(group string) *url.URL {
	return f.resolve("group", group)
}

// VMURL is the resource of one VM within a group, base/group/<group>/vm/<vm>.
func (f *Farm) VMURL(group, vm string) *url.URL {
	return f.resolve("group", group, "vm", vm)
}

func (f *Farm) resolve(segments ...string) *url.URL {
	return f.baseURL.JoinPath(segments...)
}
