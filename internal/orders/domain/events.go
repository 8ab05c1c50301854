package domain

import (
	"encoding/json"
	"strings"
)

type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// ChangeEvent is one message from the order change feed. The payload is
// advisory only: the working set is rebuilt from a full refetch after
// every event, so a partial or malformed record never corrupts state.
type ChangeEvent struct {
	Kind  ChangeKind
	Order *Order
}

// DecodeChange parses a feed payload leniently. The kind may arrive in
// either case and the record under "record" or "new" depending on the
// publisher version. A missing record is not an error for non-inserts.
func DecodeChange(b []byte) (ChangeEvent, error) {
	var aux struct {
		Kind   string          `json:"kind"`
		Event  string          `json:"eventType"`
		Record json.RawMessage `json:"record"`
		New    json.RawMessage `json:"new"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return ChangeEvent{}, err
	}

	kind := strings.ToLower(aux.Kind)
	if kind == "" {
		kind = strings.ToLower(aux.Event)
	}
	ev := ChangeEvent{Kind: ChangeKind(kind)}

	raw := aux.Record
	if len(raw) == 0 {
		raw = aux.New
	}
	if len(raw) > 0 && string(raw) != "null" {
		var o Order
		if err := json.Unmarshal(raw, &o); err == nil {
			ev.Order = &o
		}
	}
	return ev, nil
}
