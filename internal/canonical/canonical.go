// Package canonical computes the identity anchor for a news item: a
// query- and fragment-stripped absolute link, and the sha256 content id
// derived from it.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Canonicalize strips the query string and fragment from a link, leaving
// scheme, host and path untouched. It is pure and deterministic; a link
// that fails to parse is returned verbatim.
func Canonicalize(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Resolve resolves a possibly relative link against a base URL and
// canonicalizes the result. When either side fails to parse the raw
// link is canonicalized on its own, best effort.
func Resolve(raw, base string) string {
	ref, err := url.Parse(raw)
	if err != nil {
		return Canonicalize(raw)
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return Canonicalize(raw)
	}

	abs := baseURL.ResolveReference(ref)
	abs.RawQuery = ""
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String()
}

// ComputeID derives the content id for a canonical link: the lowercase
// hex sha256 digest of its UTF-8 bytes. Used as the dedup primary key.
func ComputeID(canonicalLink string) string {
	sum := sha256.Sum256([]byte(canonicalLink))
	return hex.EncodeToString(sum[:])
}
