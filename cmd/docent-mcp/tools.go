package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createAskDocumentsTool returns the ask_documents tool definition.
func createAskDocumentsTool() mcp.Tool {
	return mcp.NewTool("ask_documents",
		mcp.WithDescription("Answer a question from the indexed documents, citing the chunks the answer is grounded in"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question to answer"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("How many chunks to retrieve (default: the configured top-k)"),
		),
	)
}

// createSearchDocumentsTool returns the search_documents tool definition.
func createSearchDocumentsTool() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Retrieve the most similar indexed chunks for a query, without generating an answer"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to search for"),
		),
		mcp.WithNumber("top_k",
			mcp.Description("Maximum results to return (default: the configured top-k)"),
		),
	)
}

// createGetStatsTool returns the get_stats tool definition.
func createGetStatsTool() mcp.Tool {
	return mcp.NewTool("get_stats",
		mcp.WithDescription("Report how many chunks are indexed and which models are configured"),
	)
}
