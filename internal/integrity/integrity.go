// Package integrity computes the hashes that make ballots and audit entries
// verifiable after the fact.
package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConfirmationLength is the number of hash characters shown to voters
const ConfirmationLength = 8

// CanonicalJSON encodes v compactly with object keys sorted. Numbers are
// kept as written, so semantically identical input yields identical bytes.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}

	// encoding/json sorts map keys on output
	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return out, nil
}

// ResponseHash fingerprints a ballot as
// hex(SHA-256("vote:user:unit:canonical(answers):unix_millis")).
func ResponseHash(voteID, userID, unitID uuid.UUID, answers any, submittedAt time.Time) (string, error) {
	canonical, err := CanonicalJSON(answers)
	if err != nil {
		return "", err
	}
	input := fmt.Sprintf("%s:%s:%s:%s:%d", voteID, userID, unitID, canonical, submittedAt.UnixMilli())
	return sum(input), nil
}

// ConfirmationNumber is the voter-facing short form of a response hash
func ConfirmationNumber(hash string) string {
	if len(hash) < ConfirmationLength {
		return strings.ToUpper(hash)
	}
	return strings.ToUpper(hash[:ConfirmationLength])
}

// DataHash returns hex(SHA-256(canonical(payload))) together with the
// canonical snapshot it was computed from.
func DataHash(payload any) (string, json.RawMessage, error) {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return "", nil, err
	}
	return sum(string(canonical)), json.RawMessage(canonical), nil
}

// Verify reports whether snapshot still hashes to expected
func Verify(snapshot json.RawMessage, expected string) bool {
	if len(snapshot) == 0 {
		snapshot = json.RawMessage("null")
	}
	hash, _, err := DataHash(snapshot)
	if err != nil {
		return false
	}
	return hash == expected
}

func sum(s string) string {
	digest := sha256.Sum256([]byte(s))
	return hex.EncodeToString(digest[:])
}
