// Package identity computes stable fingerprints that re-recognize the same
// platform record across repeated fetches. Identity keys are strictly
// per-platform: key equality across platforms never merges opportunities.
package identity

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// Key derives the identity key for a normalized record. The key is a
// UUIDv5 over a platform-scoped seed, so re-deriving it from the same
// inputs on a later run or another process yields the same value.
//
// Seed priority: the platform's native identifier when present, otherwise
// normalized title + organization + canonicalized URL.
func Key(rec model.NormalizedRecord) string {
	seed := string(rec.Platform) + ":" + seedFor(rec)
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(seed)).String()
}

func seedFor(rec model.NormalizedRecord) string {
	if id := strings.TrimSpace(rec.PlatformID); id != "" {
		return "id:" + id
	}
	return rec.NormTitle + "|" + rec.NormOrg + "|" + CanonicalURL(rec.URL)
}

// CanonicalURL reduces a listing URL to host+path+query, dropping scheme,
// the www prefix, fragments, trailing slashes, and tracking parameters.
// The query survives because some platforms address listings solely
// through it (festivals_unique_info.php?ID=12345).
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(raw, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") || k == "fbclid" || k == "gclid" {
			q.Del(k)
		}
	}

	s := host + path
	if enc := q.Encode(); enc != "" {
		s += "?" + enc
	}
	return s
}
