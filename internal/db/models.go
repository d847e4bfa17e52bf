package db

import (
	"time"

	"gorm.io/datatypes"
)

// RawSale is one transactional sale record as produced by the data
// generator. Rows are immutable once written; total_amount always equals
// round(quantity*unit_price, 2).
//
// Intentionally no surrogate key: the column set and table name are the
// wire contract with the serving layer, and transaction IDs from the
// generator are not guaranteed unique.
type RawSale struct {
	TransactionID string    `gorm:"index" json:"transaction_id"`
	Date          time.Time `gorm:"index" json:"date"`
	Product       string    `gorm:"index" json:"product"`
	Category      string    `gorm:"index" json:"category"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalAmount   float64   `json:"total_amount"`
	CustomerID    string    `json:"customer_id"`
}

func (RawSale) TableName() string { return "raw_sales" }

// RawReview is one customer review record. Immutable once written.
type RawReview struct {
	ReviewID   string    `gorm:"index" json:"review_id"`
	Product    string    `gorm:"index" json:"product"`
	ReviewText string    `json:"review_text"`
	Rating     int       `json:"rating"` // 1..5 inclusive
	Date       time.Time `json:"date"`
}

func (RawReview) TableName() string { return "raw_reviews" }

// DailySale is the per-day revenue aggregate. One row per distinct sale
// date; fully rebuilt by every pipeline run.
type DailySale struct {
	Date        time.Time `gorm:"primaryKey" json:"date"`
	TotalAmount float64   `json:"total_amount"`
}

func (DailySale) TableName() string { return "daily_sales" }

// CategorySale is the per-category revenue aggregate.
type CategorySale struct {
	Category    string  `gorm:"primaryKey" json:"category"`
	TotalAmount float64 `json:"total_amount"`
}

func (CategorySale) TableName() string { return "category_sales" }

// ProductAnalytics joins per-product revenue against the per-product
// average review rating. AvgRating is nil for products that sold but
// were never reviewed (left join, not an inner join).
type ProductAnalytics struct {
	Product     string   `gorm:"primaryKey" json:"product"`
	TotalAmount float64  `json:"total_amount"`
	AvgRating   *float64 `json:"avg_rating"`
}

func (ProductAnalytics) TableName() string { return "product_analytics" }

// PipelineRun records one pipeline invocation for the run-history API.
// Bookkeeping only; not part of the all-or-nothing table replace.
type PipelineRun struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `gorm:"index" json:"status"` // "succeeded" or "failed"
	Error      string    `json:"error,omitempty"`

	SalesRows  int64 `json:"sales_rows"`
	ReviewRows int64 `json:"review_rows"`
	Days       int64 `json:"days"`
	Categories int64 `json:"categories"`
	Products   int64 `json:"products"`
}

func (PipelineRun) TableName() string { return "pipeline_runs" }

// InsightReport persists every generated insight bundle, including
// degraded-mode placeholders, so operators can audit what the external
// model actually returned.
type InsightReport struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Source is "gemini" for a parsed model response, "raw" when the
	// model reply could not be decoded as JSON, "placeholder" when no
	// API key is configured, or "error" when the call failed.
	Source          string         `gorm:"index" json:"source"`
	Summary         string         `json:"summary"`
	Recommendations datatypes.JSON `gorm:"type:json" json:"recommendations"`
}

func (InsightReport) TableName() string { return "insight_reports" }
