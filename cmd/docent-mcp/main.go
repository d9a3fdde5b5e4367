// Command docent-mcp exposes the assistant over the Model Context Protocol
// on stdio.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"

	"github.com/docentai/docent/rag/config"
	"github.com/docentai/docent/rag/pipeline"
)

const version = "0.1.0"

func main() {
	// stdout carries MCP framing, so logs go to stderr and stay quiet.
	log.DefaultLogger = log.Logger{
		Level:  log.WarnLevel,
		Writer: log.IOWriter{Writer: os.Stderr},
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	pipe, err := pipeline.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open pipeline")
	}
	defer pipe.Close()

	mcpServer := server.NewMCPServer(
		"docent",
		version,
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createAskDocumentsTool(), handleAskDocuments(pipe))
	mcpServer.AddTool(createSearchDocumentsTool(), handleSearchDocuments(pipe))
	mcpServer.AddTool(createGetStatsTool(), handleGetStats(pipe))

	// Blocks on stdio until the client disconnects.
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
