// Package cli implements the interactive command line of AetherFlow.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"aetherflow/local-app/src/pkg/adapter"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/session"
)

// CLI represents the command-line interface
type CLI struct {
	adapter     *adapter.CLIAdapter
	sessionID   string
	historyFile string
	writer      io.Writer
	logger      *log.Logger

	mu      sync.Mutex
	rl      *readline.Instance
	stopped bool
}

// NewCLI creates a new CLI instance with its own session
func NewCLI(cliAdapter *adapter.CLIAdapter, historyFile string, logger *log.Logger) (*CLI, error) {
	sessionID, err := cliAdapter.SessionAdd()
	if err != nil {
		return nil, fmt.Errorf("failed to add CLI session: %w", err)
	}
	return &CLI{
		adapter:     cliAdapter,
		sessionID:   sessionID,
		historyFile: historyFile,
		writer:      os.Stdout,
		logger:      logger,
	}, nil
}

// SetOutput redirects everything the CLI prints.
func (c *CLI) SetOutput(w io.Writer) {
	c.writer = w
}

// SessionID returns the id of the session the CLI drives.
func (c *CLI) SessionID() string {
	return c.sessionID
}

// Run starts the CLI and handles user input until exit or end of input
func (c *CLI) Run() error {
	ctx := context.Background()

	if err := c.adapter.AdapterStart(); err != nil {
		return fmt.Errorf("failed to start CLI adapter: %w", err)
	}
	defer c.adapter.SessionDelete(c.sessionID)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.adapter.PromptGet(c.sessionID),
		HistoryFile:     c.historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          c.writer,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.rl = rl
	c.mu.Unlock()

	c.welcome()

	for {
		rl.SetPrompt(c.adapter.PromptGet(c.sessionID))
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if c.isStopped() {
				break
			}
			c.logger.Error(ctx, "Error reading input", log.Fields{"error": err})
			return fmt.Errorf("failed to read input: %w", err)
		}

		if !c.Execute(line) {
			break
		}
	}

	fmt.Fprintln(c.writer, Subtle.Sprint("Goodbye."))
	return nil
}

// Stop interrupts a running Run, which then returns without error.
func (c *CLI) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.rl != nil {
		c.rl.Close()
	}
}

func (c *CLI) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *CLI) welcome() {
	fmt.Fprintf(c.writer, "%s %s\n", Brand.Sprint("AetherFlow"), Subtle.Sprint("- AI mind maps in your terminal"))
	fmt.Fprintln(c.writer, "Type 'help' for a list of commands or 'exit' to quit.")
	fmt.Fprintln(c.writer)
}

// Execute runs one input line and prints its result. It returns false when
// the CLI should stop.
func (c *CLI) Execute(line string) bool {
	ctx := context.Background()
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	c.logger.Command(ctx, line, log.Fields{"sessionID": c.sessionID})

	cmd, err := adapter.ParseCommand(line)
	if err != nil {
		c.printError(err)
		return true
	}

	switch cmd.Scope {
	case "help":
		args := cmd.Args
		if cmd.Operation != "" {
			args = append([]string{cmd.Operation}, args...)
		}
		c.printHelp(args)
		return true
	case "exit", "quit":
		return false
	}

	result, err := c.adapter.ProcessInput(c.sessionID, line)
	if errors.Is(err, session.ErrExit) {
		return false
	}
	if result != nil {
		c.render(result)
	}
	if err != nil {
		c.printError(err)
	}
	return true
}

func (c *CLI) printError(err error) {
	fmt.Fprintf(c.writer, "%s %v\n", Bad.Sprint("Error:"), err)
}
