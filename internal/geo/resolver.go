// AngelaMos | 2026
// resolver.go

package geo

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// Resolver maps client addresses to ISO country codes using a MaxMind
// country database. A nil Resolver resolves nothing.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the database at path. An empty path disables lookups
// and returns a nil Resolver.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}

	return &Resolver{reader: reader}, nil
}

// Country returns the ISO code for ip, or "" when it cannot be resolved.
func (r *Resolver) Country(ip string) string {
	if r == nil || r.reader == nil {
		return ""
	}

	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return ""
	}

	record, err := r.reader.Country(parsed)
	if err != nil || record == nil {
		return ""
	}

	return record.Country.IsoCode
}

func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
