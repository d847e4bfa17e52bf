package handlers

import (
	"errors"

	"github.com/valyala/fasthttp"

	"etldash/internal/insight"
	"etldash/internal/query"
)

// notReady maps query.ErrDataNotReady onto a retrievable 503 instead of
// a generic failure, and reports whether it handled the error.
func notReady(ctx *fasthttp.RequestCtx, err error) bool {
	if errors.Is(err, query.ErrDataNotReady) {
		errResponse(ctx, fasthttp.StatusServiceUnavailable, "data not ready: run the pipeline first")
		return true
	}
	return false
}

// KPIs serves the four headline metrics.
func KPIs(svc *query.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		kpis, err := svc.KPIs()
		if err != nil {
			if !notReady(ctx, err) {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to compute KPIs")
			}
			return
		}
		jsonResponse(ctx, kpis)
	}
}

type dailyPoint struct {
	Date        string  `json:"date"`
	TotalAmount float64 `json:"total_amount"`
}

// DailySalesChart serves the revenue-per-day series, sorted ascending by
// date.
func DailySalesChart(svc *query.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		rows, err := svc.DailySales()
		if err != nil {
			if !notReady(ctx, err) {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query daily sales")
			}
			return
		}
		points := make([]dailyPoint, 0, len(rows))
		for _, r := range rows {
			points = append(points, dailyPoint{Date: r.Date.Format("2006-01-02"), TotalAmount: r.TotalAmount})
		}
		jsonResponse(ctx, points)
	}
}

// CategorySalesChart serves revenue per category.
func CategorySalesChart(svc *query.Service) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		rows, err := svc.CategorySales()
		if err != nil {
			if !notReady(ctx, err) {
				errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query category sales")
			}
			return
		}
		jsonResponse(ctx, rows)
	}
}

// Insights serves the AI summary bundle. The generator never fails, so
// this endpoint always answers 200 with a usable body.
func Insights(g *insight.Generator) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		jsonResponse(ctx, g.Generate(ctx))
	}
}
