package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"kioskagent/config"
	"kioskagent/console/tui"
)

func main() {
	// Load environment
	_ = godotenv.Load()

	// Parse command-line flags
	daemonURL := flag.String("url", "http://localhost:8080", "Kiosk daemon URL")
	flag.Parse()

	cfg := config.Load()

	// Create TUI model
	m := tui.NewModel(*daemonURL, cfg.States)

	// Create the tea program
	program := tea.NewProgram(m)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		program.Quit()
	}()

	// Run the program
	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
