// Package inventory provides the ordered list of hosts a rolling run visits.
package inventory

import (
	"context"
	"strings"

	"github.com/pkg/errors" // Wrap errors with stacktrace.
)

// ErrNoHosts is returned by sources that produce an empty host list.
var ErrNoHosts = errors.New("no hosts found")

// Source produces a list of hostnames. The order of the list is the
// order in which hosts are processed.
type Source interface {
	Hosts(ctx context.Context) ([]string, error)
}

// Static is a fixed list of hosts.
type Static []string

// Hosts implements Source.
func (s Static) Hosts(context.Context) ([]string, error) {
	return clean(s)
}

// clean trims whitespace, drops empty entries and duplicates while
// keeping the first occurrence's position.
func clean(hosts []string) ([]string, error) {
	seen := make(map[string]bool, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	if len(out) == 0 {
		return nil, ErrNoHosts
	}
	return out, nil
}
