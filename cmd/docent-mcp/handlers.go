package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/docentai/docent/rag"
	"github.com/docentai/docent/rag/pipeline"
)

// assistant is the pipeline surface the tools need.
type assistant interface {
	Query(ctx context.Context, question string, k int) (*pipeline.Answer, error)
	Search(ctx context.Context, question string, k int) ([]rag.SearchResult, error)
	Stats(ctx context.Context) (*pipeline.Stats, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleAskDocuments implements the ask_documents tool.
func handleAskDocuments(a assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil || question == "" {
			return textResult("Error: question parameter is required"), nil
		}
		topK := request.GetInt("top_k", 0)

		answer, err := a.Query(ctx, question, topK)
		if err != nil {
			log.Error().Err(err).Msg("ask_documents failed")
			return textResult(fmt.Sprintf("Query error: %v", err)), nil
		}
		return textResult(formatAnswer(answer)), nil
	}
}

// handleSearchDocuments implements the search_documents tool.
func handleSearchDocuments(a assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || query == "" {
			return textResult("Error: query parameter is required"), nil
		}
		topK := request.GetInt("top_k", 0)

		results, err := a.Search(ctx, query, topK)
		if err != nil {
			log.Error().Err(err).Msg("search_documents failed")
			return textResult(fmt.Sprintf("Search error: %v", err)), nil
		}
		return textResult(formatSearchResults(query, results)), nil
	}
}

// handleGetStats implements the get_stats tool.
func handleGetStats(a assistant) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := a.Stats(ctx)
		if err != nil {
			log.Error().Err(err).Msg("get_stats failed")
			return textResult(fmt.Sprintf("Stats error: %v", err)), nil
		}
		return textResult(formatStats(stats)), nil
	}
}
