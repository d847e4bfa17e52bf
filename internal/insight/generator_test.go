package insight_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"etldash/internal/db"
	"etldash/internal/insight"
)

var dbSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:insight_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&db.InsightReport{}, &db.ProductAnalytics{}, &db.CategorySale{}))
	return gdb
}

func seedAggregates(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	avg := 4.2
	require.NoError(t, gdb.Create(&db.ProductAnalytics{Product: "Laptop", TotalAmount: 2999.97, AvgRating: &avg}).Error)
	require.NoError(t, gdb.Create(&db.CategorySale{Category: "Electronics", TotalAmount: 3449.97}).Error)
}

// completionServer fakes the generateContent endpoint, returning text as
// the single candidate part and recording the prompt it was sent.
func completionServer(t *testing.T, text string, prompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if prompt != nil && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			*prompt = req.Contents[0].Parts[0].Text
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func lastReport(t *testing.T, gdb *gorm.DB) db.InsightReport {
	t.Helper()
	var report db.InsightReport
	require.NoError(t, gdb.Order("id DESC").First(&report).Error)
	return report
}

func TestGenerateWithoutKeyReturnsPlaceholder(t *testing.T) {
	gdb := newTestDB(t)
	// Endpoint points nowhere routable: the placeholder path must never
	// attempt the network.
	g := insight.New(insight.Config{APIKey: "", Endpoint: "http://127.0.0.1:1", Timeout: time.Second}, gdb)

	ins := g.Generate(context.Background())
	assert.Contains(t, ins.Summary, "GEMINI_API_KEY")
	assert.NotEmpty(t, ins.Recommendations)

	assert.Equal(t, "placeholder", lastReport(t, gdb).Source)
}

func TestGenerateParsesFencedResponse(t *testing.T) {
	gdb := newTestDB(t)
	seedAggregates(t, gdb)

	var prompt string
	srv := completionServer(t,
		"```json\n{\"summary\":\"Electronics drives revenue.\",\"recommendations\":[\"Promote laptops\",\"Expand audio line\"]}\n```",
		&prompt)
	defer srv.Close()

	g := insight.New(insight.Config{APIKey: "test-key", Endpoint: srv.URL, Timeout: time.Second}, gdb)
	ins := g.Generate(context.Background())

	assert.Equal(t, "Electronics drives revenue.", ins.Summary)
	assert.Equal(t, []string{"Promote laptops", "Expand audio line"}, ins.Recommendations)
	assert.Equal(t, "gemini", lastReport(t, gdb).Source)

	// The prompt carries both serialized tables and the JSON instruction.
	assert.Contains(t, prompt, "PRODUCT STATS:")
	assert.Contains(t, prompt, "CATEGORY STATS:")
	assert.Contains(t, prompt, "Laptop")
	assert.Contains(t, prompt, "Electronics")
	assert.Contains(t, prompt, "'summary'")
}

func TestGenerateFallsBackToRawText(t *testing.T) {
	gdb := newTestDB(t)
	seedAggregates(t, gdb)

	srv := completionServer(t, "I cannot produce JSON right now.", nil)
	defer srv.Close()

	g := insight.New(insight.Config{APIKey: "test-key", Endpoint: srv.URL, Timeout: time.Second}, gdb)
	ins := g.Generate(context.Background())

	assert.Equal(t, "I cannot produce JSON right now.", ins.Summary)
	assert.Empty(t, ins.Recommendations)
	assert.Equal(t, "raw", lastReport(t, gdb).Source)
}

func TestGenerateRecoversTransportFailure(t *testing.T) {
	gdb := newTestDB(t)
	seedAggregates(t, gdb)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := insight.New(insight.Config{APIKey: "test-key", Endpoint: srv.URL, Timeout: time.Second}, gdb)
	ins := g.Generate(context.Background())

	assert.Contains(t, ins.Summary, "Error calling GenAI:")
	assert.Empty(t, ins.Recommendations)
	assert.Equal(t, "error", lastReport(t, gdb).Source)
}

func TestGenerateBeforePipelineRunStillReturnsValue(t *testing.T) {
	dsn := fmt.Sprintf("file:insight_test_bare_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&db.InsightReport{}))

	g := insight.New(insight.Config{APIKey: "test-key", Endpoint: "http://127.0.0.1:1", Timeout: time.Second}, gdb)
	ins := g.Generate(context.Background())

	assert.Contains(t, ins.Summary, "Error calling GenAI:")
	assert.Empty(t, ins.Recommendations)
	assert.Equal(t, "error", lastReport(t, gdb).Source)
}
