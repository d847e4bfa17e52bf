package etl

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"etldash/internal/db"
)

// Raw file names under <dataDir>/raw, shared with the generator.
const (
	SalesFile   = "sales_data.csv"
	ReviewsFile = "reviews_data.csv"
)

// Run executes one full extract → transform → load cycle: reads both raw
// CSVs, recomputes daily_sales, category_sales and product_analytics,
// and replaces all five store tables inside a single transaction.
//
// Either both inputs are present and all five tables are rewritten, or
// the store is left untouched. A PipelineRun bookkeeping row is recorded
// either way.
func Run(gdb *gorm.DB, dataDir string) (*db.PipelineRun, error) {
	start := time.Now().UTC()
	run := &db.PipelineRun{
		ID:        uuid.NewString(),
		StartedAt: start,
		Status:    "succeeded",
	}

	err := runOnce(gdb, dataDir, run)
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}
	observeRun(run.Status, run.FinishedAt.Sub(start))

	// Bookkeeping is best-effort: a failed history write must not mask
	// the pipeline outcome.
	if recErr := gdb.Create(run).Error; recErr != nil {
		log.Printf("pipeline: failed to record run %s: %v", run.ID, recErr)
	}

	if err != nil {
		return run, err
	}
	return run, nil
}

func runOnce(gdb *gorm.DB, dataDir string, run *db.PipelineRun) error {
	salesPath := filepath.Join(dataDir, "raw", SalesFile)
	reviewsPath := filepath.Join(dataDir, "raw", ReviewsFile)

	// Fail fast before any write when either source is absent.
	for _, p := range []string{salesPath, reviewsPath} {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingInput, p)
		}
	}

	sales, err := readSales(salesPath)
	if err != nil {
		return err
	}
	reviews, err := readReviews(reviewsPath)
	if err != nil {
		return err
	}
	// An empty review set is fine (products then keep a nil rating), but
	// a sales dump with zero rows means the upstream source is broken.
	if len(sales) == 0 {
		return fmt.Errorf("%w: %s has no rows", ErrMissingInput, salesPath)
	}

	daily, categories, products := transform(sales, reviews)

	run.SalesRows = int64(len(sales))
	run.ReviewRows = int64(len(reviews))
	run.Days = int64(len(daily))
	run.Categories = int64(len(categories))
	run.Products = int64(len(products))

	return load(gdb, sales, reviews, daily, categories, products)
}

// transform computes the three derived tables in memory. Money sums go
// through decimal arithmetic so aggregates partition the raw total
// exactly. Output slices are sorted by their key, which makes repeated
// runs over the same input byte-for-byte identical.
func transform(sales []db.RawSale, reviews []db.RawReview) ([]db.DailySale, []db.CategorySale, []db.ProductAnalytics) {
	dailyTotals := make(map[time.Time]decimal.Decimal)
	categoryTotals := make(map[string]decimal.Decimal)
	productTotals := make(map[string]decimal.Decimal)

	for _, s := range sales {
		amount := decimal.NewFromFloat(s.TotalAmount)
		dailyTotals[s.Date] = dailyTotals[s.Date].Add(amount)
		categoryTotals[s.Category] = categoryTotals[s.Category].Add(amount)
		productTotals[s.Product] = productTotals[s.Product].Add(amount)
	}

	ratingSum := make(map[string]int)
	ratingCount := make(map[string]int)
	for _, r := range reviews {
		ratingSum[r.Product] += r.Rating
		ratingCount[r.Product]++
	}

	daily := make([]db.DailySale, 0, len(dailyTotals))
	for d, total := range dailyTotals {
		daily = append(daily, db.DailySale{Date: d, TotalAmount: total.InexactFloat64()})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date.Before(daily[j].Date) })

	categories := make([]db.CategorySale, 0, len(categoryTotals))
	for c, total := range categoryTotals {
		categories = append(categories, db.CategorySale{Category: c, TotalAmount: total.InexactFloat64()})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })

	// Left join: every product with sales appears exactly once; products
	// without reviews keep a nil rating instead of being dropped.
	products := make([]db.ProductAnalytics, 0, len(productTotals))
	for p, total := range productTotals {
		row := db.ProductAnalytics{Product: p, TotalAmount: total.InexactFloat64()}
		if n := ratingCount[p]; n > 0 {
			avg := float64(ratingSum[p]) / float64(n)
			row.AvgRating = &avg
		}
		products = append(products, row)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Product < products[j].Product })

	return daily, categories, products
}

// load replaces all five tables in one transaction, so a concurrent
// reader never observes a table that was dropped but not yet reloaded.
func load(gdb *gorm.DB, sales []db.RawSale, reviews []db.RawReview,
	daily []db.DailySale, categories []db.CategorySale, products []db.ProductAnalytics) error {

	return gdb.Transaction(func(tx *gorm.DB) error {
		if err := replace(tx, &db.RawSale{}, sales, len(sales)); err != nil {
			return err
		}
		if err := replace(tx, &db.RawReview{}, reviews, len(reviews)); err != nil {
			return err
		}
		if err := replace(tx, &db.DailySale{}, daily, len(daily)); err != nil {
			return err
		}
		if err := replace(tx, &db.CategorySale{}, categories, len(categories)); err != nil {
			return err
		}
		return replace(tx, &db.ProductAnalytics{}, products, len(products))
	})
}

// replace drops and recreates model's table, then bulk-inserts rows.
func replace(tx *gorm.DB, model any, rows any, count int) error {
	if tx.Migrator().HasTable(model) {
		if err := tx.Migrator().DropTable(model); err != nil {
			return err
		}
	}
	if err := tx.Migrator().AutoMigrate(model); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, 500).Error; err != nil {
		return err
	}
	observeRows(tableName(model), count)
	return nil
}

func tableName(model any) string {
	type namer interface{ TableName() string }
	if n, ok := model.(namer); ok {
		return n.TableName()
	}
	return fmt.Sprintf("%T", model)
}
