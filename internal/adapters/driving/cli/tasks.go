package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rmraya/swordfish-core/internal/adapters/driving/tui"
	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// runTask submits fn to the task service and blocks until it finishes.
// On a terminal the ticket is followed with a progress bar.
func runTask(cmd *cobra.Command, name string, fn driving.TaskFunc) error {
	if taskService == nil {
		return errors.New("task service not configured")
	}
	ctx := commandContext(cmd)
	id := taskService.Submit(name, fn)

	out := cmd.OutOrStdout()
	if isTerminal(out) {
		view, err := tui.NewProgress(taskService, id)
		if err != nil {
			return err
		}
		program := tea.NewProgram(view, tea.WithOutput(out), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("progress view: %w", err)
		}
	}

	status, err := taskService.Wait(ctx, id)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", name, err)
	}
	if status.State == domain.TaskFailed {
		return fmt.Errorf("%s failed: %s", name, status.Error)
	}
	cmd.Printf("%s completed\n", name)
	return nil
}
