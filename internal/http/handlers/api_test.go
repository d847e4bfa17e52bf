package handlers_test

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"etldash/internal/db"
	"etldash/internal/http/handlers"
	"etldash/internal/query"
)

var dbSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&db.RawSale{}, &db.RawReview{}))
	return gdb
}

func serve(handler fasthttp.RequestHandler, uri string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI(uri)
	ctx.Request.Header.SetMethod(fasthttp.MethodGet)
	handler(&ctx)
	return &ctx
}

func TestKPIsBeforePipelineRunAnswers503(t *testing.T) {
	svc := query.New(newTestDB(t))

	ctx := serve(handlers.KPIs(svc), "/api/kpis")
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())

	var body map[string]string
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	assert.Contains(t, body["error"], "data not ready")
}

func TestDailySalesChartSerializesDates(t *testing.T) {
	gdb := newTestDB(t)
	require.NoError(t, gdb.AutoMigrate(&db.DailySale{}, &db.CategorySale{}, &db.ProductAnalytics{}))
	d1, _ := time.Parse("2006-01-02", "2024-03-02")
	d2, _ := time.Parse("2006-01-02", "2024-03-01")
	require.NoError(t, gdb.Create(&[]db.DailySale{
		{Date: d1, TotalAmount: 50},
		{Date: d2, TotalAmount: 100},
	}).Error)

	ctx := serve(handlers.DailySalesChart(query.New(gdb)), "/api/charts/daily-sales")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var points []struct {
		Date        string  `json:"date"`
		TotalAmount float64 `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &points))
	require.Len(t, points, 2)
	assert.Equal(t, "2024-03-01", points[0].Date)
	assert.InDelta(t, 100.0, points[0].TotalAmount, 1e-9)
	assert.Equal(t, "2024-03-02", points[1].Date)
}
