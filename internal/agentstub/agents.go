package agentstub

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/maestrohq/maestro/internal/agentcard"
)

// NewSalesDataAgent serves synthetic sales records.
func NewSalesDataAgent(addr, endpoint string, logger *slog.Logger) *Stub {
	card := agentcard.Card{
		Name:        "sales_data_agent",
		Description: "Fetches sales records from database for specified time periods with filtering capabilities. Supports time-based queries and custom filtering.",
		InputSchema: agentcard.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"time_period": map[string]any{
					"type":        "string",
					"description": "Time period for sales data (e.g., 'last_7_days', 'last_month', 'Q1_2024')",
				},
				"filters": map[string]any{
					"type":        "object",
					"description": "Optional filtering criteria for sales records",
				},
			},
			Required: []string{"time_period"},
		},
		OutputSchema: agentcard.OutputSchema{
			Type: "object",
			Properties: map[string]any{
				"records":     map[string]any{"type": "array", "description": "Array of sales records with details"},
				"total_sales": map[string]any{"type": "number", "description": "Sum of all sales amounts"},
				"period":      map[string]any{"type": "string", "description": "The time period that was queried"},
			},
		},
		Endpoint: endpoint,
	}

	categories := []string{"Electronics", "Clothing", "Books", "Home Goods"}
	return New(card, addr, func(req *ExecuteRequest) map[string]any {
		records := make([]map[string]any, 0, 7)
		total := 0.0
		for i := 0; i < 7; i++ {
			amount := 10.0 + rand.Float64()*490.0
			total += amount
			records = append(records, map[string]any{
				"date":       time.Now().AddDate(0, 0, -i).Format("2006-01-02"),
				"product_id": fmt.Sprintf("PROD%03d", 100+rand.Intn(900)),
				"amount":     round2(amount),
				"category":   categories[rand.Intn(len(categories))],
			})
		}
		return map[string]any{
			"records":     records,
			"total_sales": round2(total),
			"period":      "last_7_days",
		}
	}, logger)
}

// NewNewsSearchAgent serves synthetic news articles.
func NewNewsSearchAgent(addr, endpoint string, logger *slog.Logger) *Stub {
	card := agentcard.Card{
		Name:        "news_search_agent",
		Description: "Searches web for recent news articles using keywords and date ranges. Returns structured article data including titles, URLs, and snippets.",
		InputSchema: agentcard.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"keywords": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Search keywords (e.g., ['competitor', 'product launch'])",
				},
				"date_range": map[string]any{
					"type":        "string",
					"description": "Date range for articles (e.g., 'last_week', 'last_month')",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of articles to return",
					"default":     10,
				},
			},
			Required: []string{"keywords", "date_range"},
		},
		OutputSchema: agentcard.OutputSchema{
			Type: "object",
			Properties: map[string]any{
				"articles": map[string]any{"type": "array"},
			},
		},
		Endpoint: endpoint,
	}

	return New(card, addr, func(req *ExecuteRequest) map[string]any {
		articles := make([]map[string]any, 0, 5)
		for i := 0; i < 5; i++ {
			title := fmt.Sprintf("Mock Article about %s #%d", req.Task, i+1)
			articles = append(articles, map[string]any{
				"title":   title,
				"url":     fmt.Sprintf("http://mocknews.com/article/%d", 1000+rand.Intn(9000)),
				"snippet": fmt.Sprintf("This is a mock snippet for the article titled '%s'.", title),
				"date":    time.Now().AddDate(0, 0, -rand.Intn(7)-1).Format("2006-01-02"),
			})
		}
		return map[string]any{"articles": articles}
	}, logger)
}

// NewTextAnalysisAgent serves synthetic text insights.
func NewTextAnalysisAgent(addr, endpoint string, logger *slog.Logger) *Stub {
	card := agentcard.Card{
		Name:        "text_analysis_agent",
		Description: "Analyzes text content to extract themes, sentiment, and key insights using NLP. Supports multiple analysis types including theme extraction, sentiment analysis, and summarization.",
		InputSchema: agentcard.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"texts": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Array of text strings to analyze",
				},
				"analysis_type": map[string]any{
					"type":        "string",
					"enum":        []string{"themes", "sentiment", "summary"},
					"description": "Type of analysis to perform",
				},
			},
			Required: []string{"texts", "analysis_type"},
		},
		OutputSchema: agentcard.OutputSchema{
			Type: "object",
			Properties: map[string]any{
				"insights":        map[string]any{"type": "array"},
				"sentiment_score": map[string]any{"type": "number"},
				"themes":          map[string]any{"type": "array"},
			},
		},
		Endpoint: endpoint,
	}

	return New(card, addr, func(req *ExecuteRequest) map[string]any {
		themes := make([]string, 0, 3)
		for i := 0; i < 2+rand.Intn(3); i++ {
			themes = append(themes, fmt.Sprintf("theme_%d", i+1))
		}
		return map[string]any{
			"insights":        []string{"This is a mock summary of the text."},
			"sentiment_score": round2(rand.Float64()*2 - 1),
			"themes":          themes,
		}
	}, logger)
}

// NewDataVisualizationAgent serves synthetic chart links.
func NewDataVisualizationAgent(addr, endpoint string, logger *slog.Logger) *Stub {
	card := agentcard.Card{
		Name:        "data_visualization_agent",
		Description: "Creates charts and graphs from structured data. Supports multiple chart types including line, bar, and pie charts with customizable titles.",
		InputSchema: agentcard.InputSchema{
			Type: "object",
			Properties: map[string]any{
				"data": map[string]any{
					"type":        "object",
					"description": "Data to visualize (object or array with numeric values)",
				},
				"chart_type": map[string]any{
					"type":        "string",
					"enum":        []string{"line", "bar", "pie"},
					"description": "Type of chart to create",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Title for the chart",
				},
			},
			Required: []string{"data", "chart_type", "title"},
		},
		OutputSchema: agentcard.OutputSchema{
			Type: "object",
			Properties: map[string]any{
				"chart_url":  map[string]any{"type": "string"},
				"chart_type": map[string]any{"type": "string"},
			},
		},
		Endpoint: endpoint,
	}

	return New(card, addr, func(req *ExecuteRequest) map[string]any {
		return map[string]any{
			"chart_url":  fmt.Sprintf("http://mockcharts.com/chart/%d.png", 1000+rand.Intn(9000)),
			"chart_type": "bar",
		}
	}, logger)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
