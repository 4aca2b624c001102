// Package console is a local chat transport built on Bubble Tea. It renders
// the admin conversation in the terminal, with numbered buttons standing in
// for an inline keyboard, so the whole workflow can run without a messenger
// account.
package console

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/imamik/nodeup/internal/bot"
)

// Console implements bot.Transport against an interactive terminal.
type Console struct {
	adminID int64
	program *tea.Program
	updates chan bot.Update
	nextID  atomic.Int64
}

// New creates a console transport for a single local admin.
func New(adminID int64) *Console {
	c := &Console{
		adminID: adminID,
		updates: make(chan bot.Update, 16),
	}
	c.program = tea.NewProgram(newModel(adminID, c.updates))
	return c
}

// Run starts the UI and dispatches operator input to handle until the UI
// exits or ctx is cancelled. Blocks for the lifetime of the UI.
func (c *Console) Run(ctx context.Context, handle func(context.Context, bot.Update)) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("console transport requires an interactive terminal")
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.program.Quit()
				return
			case u := <-c.updates:
				handle(ctx, u)
			}
		}
	}()

	if _, err := c.program.Run(); err != nil {
		return fmt.Errorf("console UI error: %w", err)
	}
	return nil
}

// SendMessage implements bot.Transport.
func (c *Console) SendMessage(_ context.Context, _ int64, text string, buttons ...bot.Button) (int64, error) {
	id := c.nextID.Add(1)
	c.program.Send(deliveredMsg{id: id, text: text, buttons: buttons})
	return id, nil
}

// EditMessage implements bot.Transport.
func (c *Console) EditMessage(_ context.Context, _ int64, messageID int64, text string) error {
	c.program.Send(editedMsg{id: messageID, text: text})
	return nil
}
