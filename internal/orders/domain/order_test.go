package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "7", NormalizeID(" 7 "))
	assert.Equal(t, "7", NormalizeID(float64(7)))
	assert.Equal(t, "42", NormalizeID(json.Number("42")))
	assert.Equal(t, "", NormalizeID(nil))
	assert.Equal(t, "abc", NormalizeID("abc"))
}

func TestOrderUnmarshal_NumericID(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"id": 7, "status": "novo", "total": 45.5}`), &o))
	assert.Equal(t, "7", o.ID, "numeric ids must normalize to their string form")
	assert.True(t, o.Total.Equal(decimal.RequireFromString("45.5")))
}

func TestOrderUnmarshal_QuotedTotal(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"id": "7", "total": "45.50"}`), &o))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("45.5")))
}

func TestOrderUnmarshal_BadTotalBecomesZero(t *testing.T) {
	for _, raw := range []string{`"abc"`, `null`, `{}`, `-3`} {
		var o Order
		require.NoError(t, json.Unmarshal([]byte(`{"id":"1","total":`+raw+`}`), &o), "total=%s", raw)
		assert.True(t, o.Total.IsZero(), "total=%s should decode as zero", raw)
	}
}

func TestItemQtyDefault(t *testing.T) {
	assert.Equal(t, 1, Item{Name: "Bolo"}.Qty())
	assert.Equal(t, 1, Item{Name: "Bolo", Quantity: -2}.Qty())
	assert.Equal(t, 3, Item{Name: "Bolo", Quantity: 3}.Qty())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Pronto", StatusReady.Label())
	// unknown statuses are shown verbatim, never rejected
	assert.Equal(t, "cancelado", Status("cancelado").Label())
	assert.False(t, Status("cancelado").Known())
}

func TestDecodeChange_Insert(t *testing.T) {
	ev, err := DecodeChange([]byte(`{"kind":"insert","record":{"id":7,"status":"novo","total":45.5}}`))
	require.NoError(t, err)
	assert.Equal(t, ChangeInsert, ev.Kind)
	require.NotNil(t, ev.Order)
	assert.Equal(t, "7", ev.Order.ID)
}

func TestDecodeChange_UppercaseEventTypeAndNewField(t *testing.T) {
	ev, err := DecodeChange([]byte(`{"eventType":"INSERT","new":{"id":"9","status":"novo"}}`))
	require.NoError(t, err)
	assert.Equal(t, ChangeInsert, ev.Kind)
	require.NotNil(t, ev.Order)
	assert.Equal(t, "9", ev.Order.ID)
}

func TestDecodeChange_PartialPayload(t *testing.T) {
	ev, err := DecodeChange([]byte(`{"kind":"delete"}`))
	require.NoError(t, err)
	assert.Equal(t, ChangeDelete, ev.Kind)
	assert.Nil(t, ev.Order)
}

func TestDecodeChange_Garbage(t *testing.T) {
	_, err := DecodeChange([]byte(`not json`))
	assert.Error(t, err)
}
