package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"aegis/backend/internal/model"
	"aegis/backend/internal/util"
)

// Overview windows, measured back from now on sell_date
const (
	WeekWindow  = 7 * 24 * time.Hour
	MonthWindow = 30 * 24 * time.Hour
)

type windowStats struct {
	profit float64
	trades int
	wins   int
}

func (w *windowStats) add(profit float64) {
	w.profit += profit
	w.trades++
	if profit > 0 {
		w.wins++
	}
}

func (w windowStats) winRate() float64 {
	if w.trades == 0 {
		return 0
	}
	return float64(w.wins) / float64(w.trades) * 100
}

// changePercentage is the window's share relative to everything outside it
func changePercentage(total, window float64) float64 {
	if total == window {
		return 0
	}
	return window / (total - window) * 100
}

// ComputeOverview aggregates closed positions into the all-time, week and
// month windows. Open positions in the input are ignored.
func ComputeOverview(positions []model.Position, now time.Time) model.Overview {
	weekStart := now.Add(-WeekWindow)
	monthStart := now.Add(-MonthWindow)

	var all, week, month windowStats
	for i := range positions {
		p := &positions[i]
		profit, ok := p.Profit()
		if !ok {
			continue
		}
		all.add(profit)
		if !p.SellDate.Before(weekStart) {
			week.add(profit)
		}
		if !p.SellDate.Before(monthStart) {
			month.add(profit)
		}
	}

	weekChange := changePercentage(all.profit, week.profit)
	monthChange := changePercentage(all.profit, month.profit)

	return model.Overview{
		TotalBalance: model.TotalBalance{
			Amount:                all.profit,
			WeekChangePercentage:  weekChange,
			MonthChangePercentage: monthChange,
		},
		TotalProfit: model.TotalProfit{
			AllTime: all.profit,
			Week:    model.WindowProfit{Amount: week.profit, Percentage: weekChange},
			Month:   model.WindowProfit{Amount: month.profit, Percentage: monthChange},
		},
		WinRate: model.WinRate{
			AllTime: all.winRate(),
			Week:    week.winRate(),
			Month:   month.winRate(),
		},
	}
}

// bucketKey returns the calendar key of t for interval. Keys of one interval
// sort in time order.
func bucketKey(interval string, t time.Time) string {
	t = t.UTC()
	switch interval {
	case model.IntervalWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-%02d", year, week)
	case model.IntervalMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// ValidInterval reports whether interval is a supported performance bucket size
func ValidInterval(interval string) bool {
	switch interval {
	case model.IntervalDaily, model.IntervalWeekly, model.IntervalMonthly:
		return true
	}
	return false
}

// BuildPerformance groups closed positions into calendar buckets by sell_date
// and carries a running balance across them. interval must be valid.
func BuildPerformance(positions []model.Position, interval string) []model.PerformancePoint {
	closed := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if !p.IsOpen() {
			closed = append(closed, p)
		}
	}
	sort.SliceStable(closed, func(i, j int) bool {
		if !closed[i].SellDate.Equal(*closed[j].SellDate) {
			return closed[i].SellDate.Before(*closed[j].SellDate)
		}
		return closed[i].PositionID < closed[j].PositionID
	})

	points := make([]model.PerformancePoint, 0)
	lastKey := ""
	for i := range closed {
		p := &closed[i]
		profit, _ := p.Profit()
		key := bucketKey(interval, *p.SellDate)
		if len(points) == 0 || key != lastKey {
			points = append(points, model.PerformancePoint{Date: key})
			lastKey = key
		}
		bucket := &points[len(points)-1]
		bucket.Profit += profit
		bucket.Trades++
	}

	var balance float64
	for i := range points {
		balance += points[i].Profit
		points[i].Balance = balance
	}
	return points
}

// TradeRowFrom derives the trade history row for p. Open positions have no
// profit figures and their duration runs to now.
func TradeRowFrom(p *model.Position, now time.Time) model.TradeRow {
	row := model.TradeRow{
		PositionID: p.PositionID,
		Pair:       p.Pair,
		Exchange:   p.Exchange,
		EntryPrice: p.BuyPrice,
		ExitPrice:  p.SellPrice,
		BuyValue:   p.BuyValue,
		SellValue:  p.SellValue,
		BuyFees:    p.BuyFees,
		SellFees:   p.SellFees,
		BuyDate:    p.BuyDate,
		SellDate:   p.SellDate,
		Status:     util.TradeStatusOpen,
	}

	end := now
	if !p.IsOpen() {
		row.Status = util.TradeStatusClosed
		end = *p.SellDate
	}
	if profit, ok := p.Profit(); ok {
		row.ProfitLoss = &profit
		if p.BuyValue != 0 {
			pct := profit / p.BuyValue * 100
			row.ProfitLossPercentage = &pct
		}
	}
	row.DurationDays = int64(math.Floor(end.Sub(p.BuyDate).Hours() / 24))

	return row
}
