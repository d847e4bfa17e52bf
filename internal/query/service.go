// Package query maps the dashboard's analytics questions onto reads over
// the derived (and occasionally raw) tables, with light reshaping for
// presentation. It never writes.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"etldash/internal/db"
)

// ErrDataNotReady means a query ran before the pipeline ever produced
// the derived tables. Recoverable: run the pipeline and retry.
var ErrDataNotReady = errors.New("analytics tables not ready")

// KPI is one headline metric. Trend is the percent change of the
// trailing 7 days against the 7 days before, and is nil whenever the
// store holds no history to diff (it is never a fabricated constant).
type KPI struct {
	Label string   `json:"label"`
	Value string   `json:"value"`
	Trend *float64 `json:"trend"`
}

// Service is a read-only accessor over the analytics tables.
type Service struct {
	db *gorm.DB
}

func New(gdb *gorm.DB) *Service {
	return &Service{db: gdb}
}

// ready fails with ErrDataNotReady unless every derived table exists.
// The raw tables are auto-migrated at connect time, so table presence is
// only meaningful for the pipeline's outputs.
func (s *Service) ready(models ...any) error {
	for _, m := range models {
		if !s.db.Migrator().HasTable(m) {
			return ErrDataNotReady
		}
	}
	return nil
}

// KPIs computes the four headline metrics: total revenue, total order
// count, average customer rating and active product count.
func (s *Service) KPIs() ([]KPI, error) {
	if err := s.ready(&db.DailySale{}, &db.ProductAnalytics{}); err != nil {
		return nil, err
	}

	var daily []db.DailySale
	if err := s.db.Order("date ASC").Find(&daily).Error; err != nil {
		return nil, fmt.Errorf("failed to read daily sales: %w", err)
	}

	totalRevenue := decimal.Zero
	for _, d := range daily {
		totalRevenue = totalRevenue.Add(decimal.NewFromFloat(d.TotalAmount))
	}

	var orders int64
	if err := s.db.Model(&db.RawSale{}).Count(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var products []db.ProductAnalytics
	if err := s.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to read product analytics: %w", err)
	}
	ratingSum, rated := 0.0, 0
	for _, p := range products {
		if p.AvgRating != nil {
			ratingSum += *p.AvgRating
			rated++
		}
	}
	ratingValue := "n/a"
	if rated > 0 {
		ratingValue = fmt.Sprintf("%.2f/5", ratingSum/float64(rated))
	}

	revTrend, orderTrend := s.weekOverWeek(daily)

	return []KPI{
		{Label: "Total Revenue", Value: "$" + formatAmount(totalRevenue), Trend: revTrend},
		{Label: "Total Orders", Value: fmt.Sprintf("%d", orders), Trend: orderTrend},
		// Ratings and the product catalogue have no per-period history
		// in the store, so their trend stays nil.
		{Label: "Avg Customer Rating", Value: ratingValue, Trend: nil},
		{Label: "Active Products", Value: fmt.Sprintf("%d", len(products)), Trend: nil},
	}, nil
}

// DailySales returns the per-day revenue series sorted ascending by
// date. This is the only query with an ordering contract.
func (s *Service) DailySales() ([]db.DailySale, error) {
	if err := s.ready(&db.DailySale{}); err != nil {
		return nil, err
	}
	var rows []db.DailySale
	if err := s.db.Order("date ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read daily sales: %w", err)
	}
	return rows, nil
}

// CategorySales returns the per-category revenue rows. No ordering
// contract; rows come back in store order.
func (s *Service) CategorySales() ([]db.CategorySale, error) {
	if err := s.ready(&db.CategorySale{}); err != nil {
		return nil, err
	}
	var rows []db.CategorySale
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read category sales: %w", err)
	}
	return rows, nil
}

// weekOverWeek computes revenue and order-count trends anchored at the
// latest sale date: trailing 7 days vs the 7 days before. Returns nil
// trends when the prior window is empty.
func (s *Service) weekOverWeek(daily []db.DailySale) (revTrend, orderTrend *float64) {
	if len(daily) == 0 {
		return nil, nil
	}
	anchor := daily[len(daily)-1].Date
	curStart := anchor.AddDate(0, 0, -6)
	prevStart := anchor.AddDate(0, 0, -13)
	prevEnd := curStart.AddDate(0, 0, -1)

	curRev, prevRev := decimal.Zero, decimal.Zero
	for _, d := range daily {
		switch {
		case !d.Date.Before(curStart):
			curRev = curRev.Add(decimal.NewFromFloat(d.TotalAmount))
		case !d.Date.Before(prevStart):
			prevRev = prevRev.Add(decimal.NewFromFloat(d.TotalAmount))
		}
	}
	if prevRev.IsPositive() {
		t := percentChange(prevRev.InexactFloat64(), curRev.InexactFloat64())
		revTrend = &t
	}

	var curOrders, prevOrders int64
	if err := s.db.Model(&db.RawSale{}).Where("date >= ?", curStart).Count(&curOrders).Error; err != nil {
		return revTrend, nil
	}
	if err := s.db.Model(&db.RawSale{}).
		Where("date >= ? AND date <= ?", prevStart, prevEnd).
		Count(&prevOrders).Error; err != nil {
		return revTrend, nil
	}
	if prevOrders > 0 {
		t := percentChange(float64(prevOrders), float64(curOrders))
		orderTrend = &t
	}
	return revTrend, orderTrend
}

func percentChange(prev, cur float64) float64 {
	return (cur - prev) / prev * 100
}

// formatAmount renders a money amount with thousands separators and two
// decimal places, e.g. 1234567.8 -> "1,234,567.80".
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
