// Package gen writes the synthetic raw datasets the pipeline consumes.
// It is a stand-in for a real upstream system and only promises the
// column contract: sales rows whose total_amount is always
// round(quantity*unit_price, 2), and review rows with 1-5 ratings.
package gen

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

const (
	salesRows  = 500
	reviewRows = 200
	dateSpan   = 100 // days of history behind today
)

var products = []string{"Laptop", "Smartphone", "Headphones", "Tablet", "Smartwatch"}

// categories is positional against products.
var categories = []string{"Electronics", "Electronics", "Audio", "Electronics", "Wearables"}

var reviewTexts = []string{
	"Excellent product, very fast!",
	"Poor battery life, disappointed.",
	"Value for money, highly recommended.",
	"The screen is amazing but it's a bit heavy.",
	"Stopped working after two days. Terrible experience.",
	"Decent performance for the price.",
	"Best purchase of the year!",
	"Customer support was unhelpful, but the product is okay.",
	"Overpriced for what it offers.",
	"Sleek design and great features.",
}

// Generate writes sales_data.csv and reviews_data.csv under
// <dataDir>/raw, replacing any previous files.
func Generate(dataDir string) error {
	return generate(dataDir, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func generate(dataDir string, rng *rand.Rand) error {
	rawDir := filepath.Join(dataDir, "raw")
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return err
	}

	dates := make([]string, dateSpan)
	now := time.Now()
	for i := range dates {
		dates[i] = now.AddDate(0, 0, -i).Format("2006-01-02")
	}

	if err := writeCSV(filepath.Join(rawDir, "sales_data.csv"),
		[]string{"transaction_id", "date", "product", "category", "quantity", "unit_price", "total_amount", "customer_id"},
		salesRows, func() []string {
			idx := rng.Intn(len(products))
			quantity := 1 + rng.Intn(5)
			unitPrice := decimal.NewFromFloat(50 + rng.Float64()*1450).Round(2)
			total := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
			return []string{
				fmt.Sprintf("T-%d", 10000+rng.Intn(90000)),
				dates[rng.Intn(len(dates))],
				products[idx],
				categories[idx],
				fmt.Sprintf("%d", quantity),
				unitPrice.StringFixed(2),
				total.StringFixed(2),
				fmt.Sprintf("C-%d", 100+rng.Intn(900)),
			}
		}); err != nil {
		return err
	}

	return writeCSV(filepath.Join(rawDir, "reviews_data.csv"),
		[]string{"review_id", "product", "review_text", "rating", "date"},
		reviewRows, func() []string {
			return []string{
				fmt.Sprintf("R-%d", 1000+rng.Intn(9000)),
				products[rng.Intn(len(products))],
				reviewTexts[rng.Intn(len(reviewTexts))],
				fmt.Sprintf("%d", 1+rng.Intn(5)),
				dates[rng.Intn(len(dates))],
			}
		})
}

func writeCSV(path string, header []string, rows int, next func() []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(next()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
