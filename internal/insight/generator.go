// Package insight produces the executive summary and recommendation
// bundle shown on the dashboard. Narrative synthesis is delegated to the
// Gemini text-completion API; everything that can go wrong with that
// call is recovered locally, so Generate always returns a value.
package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"etldash/internal/db"
)

// Config controls the external completion call. An empty APIKey is a
// supported state: Generate then returns a deterministic placeholder and
// never touches the network.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// Insight is the outward contract: always both fields, never an error.
type Insight struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

type Generator struct {
	cfg    Config
	db     *gorm.DB
	client *http.Client
}

func New(cfg Config, gdb *gorm.DB) *Generator {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Generator{
		cfg:    cfg,
		db:     gdb,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate assembles the prompt from product_analytics and
// category_sales, makes one completion call, and parses the reply. One
// attempt, one parse; every failure path degrades into a usable Insight.
func (g *Generator) Generate(ctx context.Context) Insight {
	if g.cfg.APIKey == "" {
		ins := Insight{
			Summary: "Please configure a GEMINI_API_KEY in the environment (or .env file) to see AI insights.",
			Recommendations: []string{
				"Set the GEMINI_API_KEY environment variable",
				"Restart the backend",
			},
		}
		g.persist("placeholder", ins)
		return ins
	}

	if !g.db.Migrator().HasTable(&db.ProductAnalytics{}) || !g.db.Migrator().HasTable(&db.CategorySale{}) {
		ins := errorInsight("analytics tables not ready, run the pipeline first")
		g.persist("error", ins)
		return ins
	}
	var products []db.ProductAnalytics
	if err := g.db.Find(&products).Error; err != nil {
		ins := errorInsight(err.Error())
		g.persist("error", ins)
		return ins
	}
	var categories []db.CategorySale
	if err := g.db.Find(&categories).Error; err != nil {
		ins := errorInsight(err.Error())
		g.persist("error", ins)
		return ins
	}

	text, err := g.callModel(ctx, buildPrompt(products, categories))
	if err != nil {
		log.Printf("insight: completion call failed: %v", err)
		ins := errorInsight(err.Error())
		g.persist("error", ins)
		return ins
	}

	ins, structured := parseInsight(text)
	source := "gemini"
	if !structured {
		log.Printf("insight: response was not decodable JSON, returning raw text")
		source = "raw"
	}
	g.persist(source, ins)
	return ins
}

func errorInsight(reason string) Insight {
	return Insight{
		Summary:         "Error calling GenAI: " + reason,
		Recommendations: []string{},
	}
}

// persist records the bundle for auditing. Best-effort: a bookkeeping
// failure must not break the "always returns a value" contract.
func (g *Generator) persist(source string, ins Insight) {
	if g.db == nil {
		return
	}
	recs, err := json.Marshal(ins.Recommendations)
	if err != nil {
		recs = []byte("[]")
	}
	report := db.InsightReport{
		CreatedAt:       time.Now().UTC(),
		Source:          source,
		Summary:         ins.Summary,
		Recommendations: datatypes.JSON(recs),
	}
	if err := g.db.Create(&report).Error; err != nil {
		log.Printf("insight: failed to persist report: %v", err)
	}
	observeRequest(source)
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the generateContent response body.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// callModel sends one prompt to the Gemini API and returns the raw text
// completion. The client timeout bounds the whole exchange; expiry
// surfaces here as a transport error.
func (g *Generator) callModel(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.cfg.Endpoint, g.cfg.Model, g.cfg.APIKey)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse gemini response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned empty response")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
