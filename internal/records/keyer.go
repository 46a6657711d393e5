// Package records derives stable memory record identifiers and assembles
// records from vetted facts, so repeated deliveries collapse to one record
// per (session, key).
package records

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/recall/pkg/types"
)

// recordNamespace is the fixed UUID namespace for record identifiers.
// Changing it changes every derived identifier, so it is effectively part of
// the storage schema.
var recordNamespace = uuid.MustParse("7b9f41d2-8c34-4a6e-9f0d-2f6a3f1c5e88")

// Keyer derives deterministic record identifiers. Stateless and safe for
// concurrent use.
type Keyer struct {
	namespace string
}

// NewKeyer creates a keyer that stamps records with the given namespace
// (the logical retrieval partition, default "/").
func NewKeyer(namespace string) *Keyer {
	if namespace == "" {
		namespace = "/"
	}
	return &Keyer{namespace: namespace}
}

// Identifier derives the stable identifier for a fact key within a session:
// a UUIDv5 over sessionID and the normalized key, "rec:" prefixed.
//
// The same (session, key) always yields the same identifier regardless of
// value drift, so a later value overwrites rather than coexists. Distinct
// keys within a session never collide. The unit separator between the two
// parts keeps ("ab","c") and ("a","bc") from hashing identically.
func (k *Keyer) Identifier(sessionID string, fact types.CandidateFact) string {
	key := normalizeKey(fact.Key)
	name := sessionID + "\x1f" + key
	return "rec:" + uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

// Record assembles a MemoryRecord for the fact, content rendered as
// "key: value".
func (k *Keyer) Record(sessionID string, fact types.CandidateFact, now time.Time) types.MemoryRecord {
	return types.MemoryRecord{
		Identifier: k.Identifier(sessionID, fact),
		Namespace:  k.namespace,
		Content:    normalizeKey(fact.Key) + ": " + fact.Value,
		CreatedAt:  now,
	}
}

// Records assembles records for all facts, preserving input order so the
// store's last-writer-wins semantics follow request order.
func (k *Keyer) Records(sessionID string, facts []types.CandidateFact, now time.Time) []types.MemoryRecord {
	out := make([]types.MemoryRecord, 0, len(facts))
	for _, fact := range facts {
		out = append(out, k.Record(sessionID, fact, now))
	}
	return out
}

// normalizeKey lower-cases and trims a fact key. The parser already
// normalizes keys; the keyer repeats it so identifiers stay stable even for
// facts that bypass the parser (e.g. tests or replays).
func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
