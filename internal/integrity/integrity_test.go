package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanonicalJSON_SortsKeys(t *testing.T) {
	a, err := CanonicalJSON(json.RawMessage(`{"b": 1, "a": {"y": true, "x": [3, 1]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := CanonicalJSON(map[string]any{"a": map[string]any{"x": []int{3, 1}, "y": true}, "b": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := `{"a":{"x":[3,1],"y":true},"b":1}`
	if string(a) != want {
		t.Errorf("got %s, want %s", a, want)
	}
	if string(a) != string(b) {
		t.Errorf("expected identical encodings, got %s and %s", a, b)
	}
}

func TestCanonicalJSON_PreservesNumbers(t *testing.T) {
	out, err := CanonicalJSON(json.RawMessage(`{"share":0.10000000000000000001,"big":12345678901234567890}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"big":12345678901234567890,"share":0.10000000000000000001}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestCanonicalJSON_Invalid(t *testing.T) {
	if _, err := CanonicalJSON(json.RawMessage(`{"a":`)); err == nil {
		t.Error("expected error for malformed json")
	}
	if _, err := CanonicalJSON(make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
}

func TestResponseHash_Format(t *testing.T) {
	voteID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	unitID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	at := time.UnixMilli(1767225600123)
	answers := map[string]json.RawMessage{"q2": json.RawMessage(`"opt"`), "q1": json.RawMessage(`true`)}

	got, err := ResponseHash(voteID, userID, unitID, answers, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := fmt.Sprintf("%s:%s:%s:%s:%d", voteID, userID, unitID, `{"q1":true,"q2":"opt"}`, int64(1767225600123))
	digest := sha256.Sum256([]byte(input))
	if got != hex.EncodeToString(digest[:]) {
		t.Errorf("hash mismatch: %s", got)
	}
	if len(got) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(got))
	}
}

func TestResponseHash_Deterministic(t *testing.T) {
	id := uuid.New()
	at := time.Now()

	h1, _ := ResponseHash(id, id, id, json.RawMessage(`{"a":1,"b":2}`), at)
	h2, _ := ResponseHash(id, id, id, json.RawMessage(`{"b":2,"a":1}`), at)
	if h1 != h2 {
		t.Error("expected key order not to affect the hash")
	}

	h3, _ := ResponseHash(id, id, id, json.RawMessage(`{"a":1,"b":2}`), at.Add(time.Millisecond))
	if h1 == h3 {
		t.Error("expected submission time to affect the hash")
	}
}

func TestConfirmationNumber(t *testing.T) {
	if got := ConfirmationNumber("a1b2c3d4e5f6"); got != "A1B2C3D4" {
		t.Errorf("got %q", got)
	}
	if got := ConfirmationNumber("abc"); got != "ABC" {
		t.Errorf("got %q for short hash", got)
	}
}

func TestDataHash_Verify(t *testing.T) {
	payload := map[string]any{"reason": "duplicate agenda", "count": 3}

	hash, snapshot, err := DataHash(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(snapshot) != `{"count":3,"reason":"duplicate agenda"}` {
		t.Errorf("unexpected snapshot %s", snapshot)
	}
	if !Verify(snapshot, hash) {
		t.Error("expected untouched snapshot to verify")
	}

	tampered := json.RawMessage(`{"count":4,"reason":"duplicate agenda"}`)
	if Verify(tampered, hash) {
		t.Error("expected tampered snapshot to fail verification")
	}
}

func TestVerify_EmptySnapshotHashesAsNull(t *testing.T) {
	hash, _, err := DataHash(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Verify(nil, hash) {
		t.Error("expected empty snapshot to verify against hash of null")
	}
}
