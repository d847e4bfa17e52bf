package main

import (
	"log"

	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"

	"etldash/internal/config"
	"etldash/internal/db"
	"etldash/internal/etl"
	"etldash/internal/gen"
	"etldash/internal/http/handlers"
	"etldash/internal/insight"
	"etldash/internal/query"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	sqlDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	etl.InitMetrics()
	insight.InitMetrics()

	if cfg.GenerateOnStart {
		if err := gen.Generate(cfg.DataDir); err != nil {
			log.Fatalf("failed to generate raw data: %v", err)
		}
		log.Printf("raw data generated in %s/raw", cfg.DataDir)
	}

	if cfg.ETLOnStart {
		// A failed startup run is not fatal: queries answer "not ready"
		// until a later run succeeds.
		if run, err := etl.Run(sqlDB, cfg.DataDir); err != nil {
			log.Printf("warning: startup pipeline run failed: %v", err)
		} else {
			log.Printf("pipeline run %s succeeded: %d sales, %d reviews, %d products",
				run.ID, run.SalesRows, run.ReviewRows, run.Products)
		}
	}

	querySvc := query.New(sqlDB)
	insightGen := insight.New(insight.Config{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		Timeout: cfg.InsightTimeout,
	}, sqlDB)

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	})

	r.GET("/api/kpis", handlers.KPIs(querySvc))
	r.GET("/api/charts/daily-sales", handlers.DailySalesChart(querySvc))
	r.GET("/api/charts/category-sales", handlers.CategorySalesChart(querySvc))
	r.GET("/api/ai/insights", handlers.Insights(insightGen))

	r.POST("/api/generate", handlers.GenerateData(cfg))
	r.POST("/api/etl/run", handlers.RunPipeline(sqlDB, cfg))
	r.GET("/api/etl/runs", handlers.ListRuns(sqlDB))

	r.GET("/metrics", handlers.MetricsHandler())

	// Global middleware chain: request logger, then CORS, then router.
	handler := handlers.RequestLogger(handlers.CORS(r.Handler))

	log.Printf("etldash listening on %s", cfg.ListenAddr)
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
