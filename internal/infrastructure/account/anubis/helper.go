package anubis

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

const defaultIntrospectPath = "/v1/auth/introspect"

// isCircuitFailure counts only transport and 5xx failures against the
// breaker. A rejected token is a healthy answer.
func isCircuitFailure(err error) bool {
	return crerr.Is(err, errAnubisTransient)
}

// hashToken keeps raw bearer tokens out of the cache keys.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// buildURL resolves the introspection path against the base URL. An absolute
// path overrides the base entirely.
func buildURL(baseURL, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultIntrospectPath
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/")
	if err != nil {
		return path
	}
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return base.String()
	}
	if ref.IsAbs() {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func clip(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "...(truncated)"
}
