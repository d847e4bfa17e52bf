package handlers

import (
	"errors"

	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"etldash/internal/config"
	dbpkg "etldash/internal/db"
	"etldash/internal/etl"
	"etldash/internal/gen"
)

// RunPipeline triggers one synchronous pipeline run and returns its
// bookkeeping row. Precondition failures map to client errors; the
// store is untouched on any failure.
func RunPipeline(db *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		run, err := etl.Run(db, cfg.DataDir)
		switch {
		case errors.Is(err, etl.ErrMissingInput):
			errResponse(ctx, fasthttp.StatusConflict, "raw data files not found: generate data first")
			return
		case errors.Is(err, etl.ErrMalformedRecord):
			errResponse(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			errResponse(ctx, fasthttp.StatusInternalServerError, "pipeline run failed")
			return
		}
		jsonResponse(ctx, run)
	}
}

// GenerateData regenerates the raw CSV datasets.
func GenerateData(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if err := gen.Generate(cfg.DataDir); err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to generate raw data")
			return
		}
		ctx.SetStatusCode(fasthttp.StatusAccepted)
		jsonResponse(ctx, map[string]string{"status": "generated"})
	}
}

// ListRuns serves the most recent pipeline runs, newest first.
func ListRuns(db *gorm.DB) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var runs []dbpkg.PipelineRun
		if err := db.Order("started_at DESC").Limit(20).Find(&runs).Error; err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "failed to query pipeline runs")
			return
		}
		jsonResponse(ctx, map[string]any{"runs": runs})
	}
}
