package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNew       Status = "novo"
	StatusPreparing Status = "preparando"
	StatusReady     Status = "pronto"
	StatusDelivered Status = "entregue"
)

var statusLabels = map[Status]string{
	StatusNew:       "Novo",
	StatusPreparing: "Preparando",
	StatusReady:     "Pronto",
	StatusDelivered: "Entregue",
}

// Label returns the display name for known statuses. Unknown values
// are rendered verbatim; the lifecycle is advisory, not validated.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// Statuses lists the known lifecycle values in display order.
func Statuses() []Status {
	return []Status{StatusNew, StatusPreparing, StatusReady, StatusDelivered}
}

type Order struct {
	ID        string          `json:"id"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	Total     decimal.Decimal `json:"total"`
	Customer  Customer        `json:"customer"`
	Items     []Item          `json:"items"`
}

// Customer keys match the store row as written by the shop front end.
type Customer struct {
	Nome      string   `json:"nome,omitempty"`
	Telefone  string   `json:"telefone,omitempty"`
	Rua       string   `json:"rua,omitempty"`
	Numero    string   `json:"numero,omitempty"`
	Bairro    string   `json:"bairro,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type Item struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity,omitempty"`
	Toppings []string `json:"toppings,omitempty"`
}

// Qty applies the implicit default of one unit when the row omits the
// quantity or carries a nonsense value.
func (i Item) Qty() int {
	if i.Quantity <= 0 {
		return 1
	}
	return i.Quantity
}

// UnmarshalJSON tolerates the id arriving as a JSON number or string
// (the change feed and the store disagree on the primitive) and a
// total that is numeric, quoted or garbage. Garbage totals become zero
// rather than failing the whole order.
func (o *Order) UnmarshalJSON(b []byte) error {
	type plain Order
	aux := struct {
		*plain
		ID    json.RawMessage `json:"id"`
		Total json.RawMessage `json:"total"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	o.ID = NormalizeID(rawScalar(aux.ID))
	o.Total = parseTotal(aux.Total)
	return nil
}

// NormalizeID produces the canonical join-key form of an order id:
// its string representation with surrounding whitespace trimmed.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return strings.TrimSpace(id.String())
	case float64:
		return strings.TrimSpace(decimal.NewFromFloat(id).String())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

func rawScalar(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}

func parseTotal(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
