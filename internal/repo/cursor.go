package repo

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/pkordes/product-ideas/backend/internal/docstore"
	"github.com/pkordes/product-ideas/backend/internal/domain"
)

const cursorVersion = 1

// cursorToken is the decoded form of a page cursor. Clients only ever see
// it base64url-encoded.
type cursorToken struct {
	V  int               `json:"v"`
	F  string            `json:"f"`
	ID string            `json:"id"`
	K  []json.RawMessage `json:"k"`
}

// fingerprint identifies the filter/order configuration of q. A cursor is
// only valid for queries with the same fingerprint.
func fingerprint(q docstore.Query) string {
	h := sha256.New()
	fmt.Fprintf(h, "c=%s\n", q.Collection)
	for _, f := range q.Filters {
		v, _ := docstore.MarshalValue(f.Value)
		fmt.Fprintf(h, "f=%s %s %s\n", f.Field, f.Op, v)
	}
	for _, o := range q.Orders {
		fmt.Fprintf(h, "o=%s %s\n", o.Field, o.Dir)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// encodeCursor marks the position of last under q's ordering.
func encodeCursor(q docstore.Query, last docstore.Snapshot) (string, error) {
	pos := docstore.PositionOf(last, q.Orders)
	tok := cursorToken{V: cursorVersion, F: fingerprint(q), ID: pos.ID}
	for _, v := range pos.Values {
		raw, err := docstore.MarshalValue(v)
		if err != nil {
			return "", fmt.Errorf("repo.encodeCursor: %w", err)
		}
		tok.K = append(tok.K, raw)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return "", fmt.Errorf("repo.encodeCursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decodeCursor parses raw and checks it was produced for q.
func decodeCursor(raw string, q docstore.Query) (*docstore.Position, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64url", domain.ErrInvalidCursor)
	}
	var tok cursorToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: malformed token", domain.ErrInvalidCursor)
	}
	if tok.V != cursorVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrInvalidCursor, tok.V)
	}
	if tok.F != fingerprint(q) {
		return nil, fmt.Errorf("%w: filters or ordering changed since the cursor was issued", domain.ErrInvalidCursor)
	}
	if tok.ID == "" || len(tok.K) != len(q.Orders) {
		return nil, fmt.Errorf("%w: incomplete position", domain.ErrInvalidCursor)
	}

	pos := &docstore.Position{ID: tok.ID, Values: make([]any, len(tok.K))}
	for i, k := range tok.K {
		v, err := docstore.UnmarshalValue(k)
		if err != nil {
			return nil, fmt.Errorf("%w: bad position value", domain.ErrInvalidCursor)
		}
		pos.Values[i] = v
	}
	return pos, nil
}
