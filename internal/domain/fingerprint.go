package domain

import (
	"crypto/sha1" //nolint:gosec // identity hash, not an integrity check
	"encoding/hex"
	"strings"
	"time"
)

// Fingerprint computes the deduplication identity of an incident: a SHA-1
// over the normalized (city, street, street_number, category, source,
// start_ts_utc) tuple, rendered as 40 lowercase hex characters.
//
// Deterministic fingerprints make partition writes idempotent and replay
// safe — reprocessing the same raw input reproduces the same identity
// regardless of when or in what order the run happens. Nothing random or
// time-dependent may feed the hash.
func Fingerprint(inc CanonicalIncident) string {
	parts := []string{
		foldField(inc.City),
		foldField(strDeref(inc.Street)),
		foldField(strDeref(inc.StreetNumber)),
		string(inc.Category),
		string(inc.Source),
		inc.StartTSUTC.UTC().Format(time.RFC3339),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// foldField case-folds and whitespace-collapses a text field so records that
// differ only in casing or spacing collapse to the same fingerprint.
func foldField(s string) string {
	return strings.ToLower(CollapseWhitespace(s))
}

func strDeref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
