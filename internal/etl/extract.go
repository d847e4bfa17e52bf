package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"etldash/internal/db"
)

// dateLayout is the on-disk date format of the raw CSVs.
const dateLayout = "2006-01-02"

// header reads the first CSV row and returns a column-name → index map,
// so the extract step tolerates column reordering in the raw files.
func header(r *csv.Reader, file string) (map[string]int, error) {
	cols, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read CSV header: %w", file, err)
	}
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	return idx, nil
}

func field(row []string, idx map[string]int, name, file string, line int) (string, error) {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return "", fmt.Errorf("%s line %d: missing column %q: %w", file, line, name, ErrMalformedRecord)
	}
	return row[i], nil
}

// readSales extracts raw sale rows from path. Any unparseable date or
// number aborts the extract with ErrMalformedRecord.
func readSales(path string) ([]db.RawSale, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	idx, err := header(r, path)
	if err != nil {
		return nil, err
	}

	var sales []db.RawSale
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %v: %w", path, line, err, ErrMalformedRecord)
		}

		var s db.RawSale
		if s.TransactionID, err = field(row, idx, "transaction_id", path, line); err != nil {
			return nil, err
		}
		rawDate, err := field(row, idx, "date", path, line)
		if err != nil {
			return nil, err
		}
		if s.Date, err = time.Parse(dateLayout, rawDate); err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q: %w", path, line, rawDate, ErrMalformedRecord)
		}
		if s.Product, err = field(row, idx, "product", path, line); err != nil {
			return nil, err
		}
		if s.Category, err = field(row, idx, "category", path, line); err != nil {
			return nil, err
		}
		if s.Quantity, err = intField(row, idx, "quantity", path, line); err != nil {
			return nil, err
		}
		if s.UnitPrice, err = floatField(row, idx, "unit_price", path, line); err != nil {
			return nil, err
		}
		if s.TotalAmount, err = floatField(row, idx, "total_amount", path, line); err != nil {
			return nil, err
		}
		if s.CustomerID, err = field(row, idx, "customer_id", path, line); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, nil
}

// readReviews extracts raw review rows from path.
func readReviews(path string) ([]db.RawReview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	idx, err := header(r, path)
	if err != nil {
		return nil, err
	}

	var reviews []db.RawReview
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %v: %w", path, line, err, ErrMalformedRecord)
		}

		var rv db.RawReview
		if rv.ReviewID, err = field(row, idx, "review_id", path, line); err != nil {
			return nil, err
		}
		if rv.Product, err = field(row, idx, "product", path, line); err != nil {
			return nil, err
		}
		if rv.ReviewText, err = field(row, idx, "review_text", path, line); err != nil {
			return nil, err
		}
		if rv.Rating, err = intField(row, idx, "rating", path, line); err != nil {
			return nil, err
		}
		rawDate, err := field(row, idx, "date", path, line)
		if err != nil {
			return nil, err
		}
		if rv.Date, err = time.Parse(dateLayout, rawDate); err != nil {
			return nil, fmt.Errorf("%s line %d: bad date %q: %w", path, line, rawDate, ErrMalformedRecord)
		}
		reviews = append(reviews, rv)
	}
	return reviews, nil
}

func intField(row []string, idx map[string]int, name, file string, line int) (int, error) {
	s, err := field(row, idx, name, file, line)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: bad %s %q: %w", file, line, name, s, ErrMalformedRecord)
	}
	return n, nil
}

func floatField(row []string, idx map[string]int, name, file string, line int) (float64, error) {
	s, err := field(row, idx, name, file, line)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s line %d: bad %s %q: %w", file, line, name, s, ErrMalformedRecord)
	}
	return f, nil
}
