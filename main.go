package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docentai/docent/rag/config"
	"github.com/docentai/docent/rag/pipeline"
	"github.com/docentai/docent/tui/chat"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "docent:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pipe, err := pipeline.Open(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer pipe.Close()

	session := chat.NewSession(pipe)
	defer session.Shutdown()

	program := tea.NewProgram(
		chat.InitialModel(session),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = program.Run()
	return err
}
