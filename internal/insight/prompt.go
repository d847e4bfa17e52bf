package insight

import (
	"fmt"
	"strings"

	"etldash/internal/db"
)

// buildPrompt renders both aggregate tables into a compact textual form
// and wraps them in the fixed instruction template. No numeric work
// happens here; the tables already carry everything the model needs.
func buildPrompt(products []db.ProductAnalytics, categories []db.CategorySale) string {
	var b strings.Builder

	b.WriteString("You are a business consultant. Analyze the following business data and provide:\n")
	b.WriteString("1. A brief executive summary.\n")
	b.WriteString("2. 3-4 actionable business recommendations.\n\n")

	b.WriteString("PRODUCT STATS:\n")
	b.WriteString("product | total_amount | avg_rating\n")
	for _, p := range products {
		rating := "n/a"
		if p.AvgRating != nil {
			rating = fmt.Sprintf("%.2f", *p.AvgRating)
		}
		fmt.Fprintf(&b, "%s | %.2f | %s\n", p.Product, p.TotalAmount, rating)
	}

	b.WriteString("\nCATEGORY STATS:\n")
	b.WriteString("category | total_amount\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "%s | %.2f\n", c.Category, c.TotalAmount)
	}

	b.WriteString("\nFormat the response as JSON with keys 'summary' (string) and 'recommendations' (list of strings).\n")
	b.WriteString("Respond with valid JSON only.")

	return b.String()
}
