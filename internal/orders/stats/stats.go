// Package stats derives the dashboard metrics from a snapshot of the
// working set. Everything here is pure: callers pass the snapshot, the
// clock and the shop's time zone, and keep the returned value.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/doceeser/orders-dashboard/internal/orders/domain"
)

const dayKeyFormat = "2006-01-02"

// SalesWindowDays is the length of the rolling sales series, today
// inclusive.
const SalesWindowDays = 7

type StatusCount struct {
	Status domain.Status `json:"status"`
	Label  string        `json:"label"`
	Count  int           `json:"count"`
}

type DayTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
}

type Stats struct {
	TotalToday    decimal.Decimal `json:"totalToday"`
	CountToday    int             `json:"countToday"`
	TicketAverage decimal.Decimal `json:"ticketAverage"`
	StatusSeries  []StatusCount   `json:"statusSeries"`
	SalesSeries   []DayTotal      `json:"salesSeries"`
}

// Compute recomputes every metric wholesale from the given snapshot.
// The today-window boundary and the day bucket keys both use loc, so a
// sale never lands on one side of midnight in one metric and the other
// side in another.
func Compute(orders []domain.Order, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	s := Stats{
		TotalToday:    decimal.Zero,
		TicketAverage: decimal.Zero,
		SalesSeries:   make([]DayTotal, 0, SalesWindowDays),
	}

	buckets := make(map[string]int, SalesWindowDays)
	for i := SalesWindowDays - 1; i >= 0; i-- {
		key := local.AddDate(0, 0, -i).Format(dayKeyFormat)
		buckets[key] = len(s.SalesSeries)
		s.SalesSeries = append(s.SalesSeries, DayTotal{Date: key, Total: decimal.Zero})
	}

	seen := make(map[domain.Status]int)
	for _, o := range orders {
		if idx, ok := seen[o.Status]; ok {
			s.StatusSeries[idx].Count++
		} else {
			seen[o.Status] = len(s.StatusSeries)
			s.StatusSeries = append(s.StatusSeries, StatusCount{
				Status: o.Status,
				Label:  o.Status.Label(),
				Count:  1,
			})
		}

		if o.CreatedAt.IsZero() {
			continue
		}
		if !o.CreatedAt.Before(midnight) {
			s.TotalToday = s.TotalToday.Add(o.Total)
			s.CountToday++
		}
		if idx, ok := buckets[o.CreatedAt.In(loc).Format(dayKeyFormat)]; ok {
			s.SalesSeries[idx].Total = s.SalesSeries[idx].Total.Add(o.Total)
		}
	}

	if s.CountToday > 0 {
		s.TicketAverage = s.TotalToday.Div(decimal.NewFromInt(int64(s.CountToday)))
	}
	return s
}
