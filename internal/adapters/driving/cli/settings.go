package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change configuration",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Changes a setting and saves the configuration file.

Keys:
  store.auto_confirm, store.penalization, store.tag_penalty,
  store.propagation_threshold, store.batch_size, store.commit_every,
  diff.separators, tasks.workers, tasks.retention`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsShowCmd.Flags().BoolVar(&settingsJSON, "json", false, "output settings as JSON")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	store := settingsService.Store()
	tasks := settingsService.Tasks()

	if settingsJSON {
		return printJSON(cmd, map[string]any{
			"store": store,
			"tasks": tasks,
		})
	}

	cmd.Println(headerStyle.Render("Store"))
	cmd.Printf("  auto_confirm:          %t\n", store.AutoConfirm)
	cmd.Printf("  penalization:          %d\n", store.Penalization)
	cmd.Printf("  tag_penalty:           %d\n", store.TagPenalty)
	cmd.Printf("  propagation_threshold: %d\n", store.PropagationThreshold)
	cmd.Printf("  batch_size:            %d\n", store.BatchSize)
	cmd.Printf("  commit_every:          %d\n", store.CommitEvery)
	cmd.Printf("  separators:            %q\n", store.Separators)
	cmd.Println(headerStyle.Render("Tasks"))
	cmd.Printf("  workers:               %d\n", tasks.Workers)
	cmd.Printf("  retention:             %s\n", tasks.Retention)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("setting %s: %w", args[0], err)
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}
