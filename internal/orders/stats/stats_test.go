package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func order(id string, status domain.Status, created time.Time, total string) domain.Order {
	return domain.Order{
		ID:        id,
		Status:    status,
		CreatedAt: created,
		Total:     decimal.RequireFromString(total),
	}
}

func TestCompute_Empty(t *testing.T) {
	now := at(t, "2026-08-28T15:00:00Z")
	s := Compute(nil, now, time.UTC)

	assert.True(t, s.TotalToday.IsZero())
	assert.Zero(t, s.CountToday)
	assert.True(t, s.TicketAverage.IsZero(), "no division-by-zero fault on an empty day")
	assert.Empty(t, s.StatusSeries)
	assert.Len(t, s.SalesSeries, SalesWindowDays)
}

func TestCompute_TicketAverageIdentity(t *testing.T) {
	now := at(t, "2026-08-28T15:00:00Z")
	orders := []domain.Order{
		order("1", domain.StatusNew, at(t, "2026-08-28T10:00:00Z"), "45.5"),
		order("2", domain.StatusReady, at(t, "2026-08-28T11:00:00Z"), "10"),
		order("3", domain.StatusNew, at(t, "2026-08-27T11:00:00Z"), "99"),
	}
	s := Compute(orders, now, time.UTC)

	assert.Equal(t, 2, s.CountToday, "yesterday's order is outside the today window")
	assert.True(t, s.TotalToday.Equal(decimal.RequireFromString("55.5")))
	want := s.TotalToday.Div(decimal.NewFromInt(int64(s.CountToday)))
	assert.True(t, s.TicketAverage.Equal(want))
}

func TestCompute_SalesSeriesShape(t *testing.T) {
	now := at(t, "2026-08-28T15:00:00Z")
	s := Compute(nil, now, time.UTC)

	require.Len(t, s.SalesSeries, 7)
	assert.Equal(t, "2026-08-28", s.SalesSeries[6].Date, "series must end today")
	assert.Equal(t, "2026-08-22", s.SalesSeries[0].Date)
	for i := 1; i < len(s.SalesSeries); i++ {
		assert.Less(t, s.SalesSeries[i-1].Date, s.SalesSeries[i].Date, "dates strictly increasing")
	}
}

func TestCompute_SalesSeriesMatchesDirectFilter(t *testing.T) {
	now := at(t, "2026-08-28T15:00:00Z")
	orders := []domain.Order{
		order("1", domain.StatusNew, at(t, "2026-08-28T10:00:00Z"), "45.5"),
		order("2", domain.StatusNew, at(t, "2026-08-25T10:00:00Z"), "20"),
		order("3", domain.StatusNew, at(t, "2026-08-25T23:59:59Z"), "5"),
		order("4", domain.StatusNew, at(t, "2026-08-10T10:00:00Z"), "1000"), // outside window
	}
	s := Compute(orders, now, time.UTC)

	var seriesSum decimal.Decimal
	for _, d := range s.SalesSeries {
		seriesSum = seriesSum.Add(d.Total)
	}

	var direct decimal.Decimal
	windowStart := at(t, "2026-08-22T00:00:00Z")
	for _, o := range orders {
		if !o.CreatedAt.Before(windowStart) {
			direct = direct.Add(o.Total)
		}
	}
	assert.True(t, seriesSum.Equal(direct), "series sum %s != direct sum %s", seriesSum, direct)

	byDate := map[string]decimal.Decimal{}
	for _, d := range s.SalesSeries {
		byDate[d.Date] = d.Total
	}
	assert.True(t, byDate["2026-08-25"].Equal(decimal.RequireFromString("25")))
	assert.True(t, byDate["2026-08-10"].IsZero() && byDate["2026-08-22"].IsZero())
}

func TestCompute_StatusSeries(t *testing.T) {
	now := at(t, "2026-08-28T15:00:00Z")
	orders := []domain.Order{
		order("1", domain.StatusNew, at(t, "2026-08-28T10:00:00Z"), "1"),
		order("2", domain.StatusNew, at(t, "2026-08-28T10:05:00Z"), "1"),
		order("3", domain.StatusDelivered, at(t, "2026-08-01T10:00:00Z"), "1"),
	}
	s := Compute(orders, now, time.UTC)

	require.Len(t, s.StatusSeries, 2, "absent statuses produce no entry")
	counts := map[domain.Status]int{}
	for _, sc := range s.StatusSeries {
		counts[sc.Status] = sc.Count
	}
	assert.Equal(t, 2, counts[domain.StatusNew])
	assert.Equal(t, 1, counts[domain.StatusDelivered], "histogram covers the whole set, not just today")
}

// TestCompute_ConsistentDayBoundary pins the fix for the original
// local-vs-UTC mismatch: an order at 01:00 UTC is 22:00 the previous
// day in São Paulo, so with a BRT location it must bucket and count on
// the local previous day.
func TestCompute_ConsistentDayBoundary(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, brt)
	orders := []domain.Order{
		order("1", domain.StatusNew, at(t, "2026-08-28T01:00:00Z"), "10"),
	}
	s := Compute(orders, now, brt)

	assert.Zero(t, s.CountToday, "22:00 local yesterday is not in today's window")
	byDate := map[string]decimal.Decimal{}
	for _, d := range s.SalesSeries {
		byDate[d.Date] = d.Total
	}
	assert.True(t, byDate["2026-08-27"].Equal(decimal.NewFromInt(10)))
	assert.True(t, byDate["2026-08-28"].IsZero())
}
