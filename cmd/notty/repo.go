package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02 15:04:05"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a repository in the current directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("init")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Init(); err != nil {
			return err
		}
		printSuccess(os.Stdout, fmt.Sprintf("Initialized repository in %s", a.Root()))
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the current state of the working directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		comment, _ := cmd.Flags().GetString("comment")
		multiline, _ := cmd.Flags().GetBool("multiline")
		if cmd.Flags().Changed("comment") && multiline {
			return fmt.Errorf("Only one comment option can be used. Choose -c or -m.")
		}

		a, err := newRepoApp("save")
		if err != nil {
			return err
		}
		defer a.Close()

		if multiline {
			if comment, err = multilineInput("Save's comment"); err != nil {
				return err
			}
		}

		save, err := a.Save(comment)
		if err != nil {
			return err
		}
		printSuccess(os.Stdout, fmt.Sprintf("Saved %s", save.Hash))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newRepoApp("list")
		if err != nil {
			return err
		}
		defer a.Close()

		saves, err := a.Saves()
		if err != nil {
			return err
		}

		bullets := make([]string, 0, len(saves))
		for _, s := range saves {
			bullets = append(bullets, s.Hash.String())
		}
		printBulletList(os.Stdout, fmt.Sprintf("Local saves: %d", len(saves)), bullets)
		return nil
	},
}

var descCmd = &cobra.Command{
	Use:   "desc HASH",
	Short: "Describe a save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newRepoApp("desc")
		if err != nil {
			return err
		}
		defer a.Close()

		save, err := a.FindSave(args[0])
		if err != nil {
			return err
		}

		created := "Undefined."
		if t, ok := save.Created(); ok {
			created = t.Local().Format(dateLayout)
		}

		fmt.Printf("\n< DESCRIPTION OF %s >\n", save.Hash.Short)
		printKeyValue(os.Stdout, "Comment", "\n"+strings.TrimSpace(save.Comment))
		printKeyValue(os.Stdout, "Date created", created)
		printKeyValue(os.Stdout, "Short HASH", save.Hash.Short)
		printKeyValue(os.Stdout, "Full HASH", save.Hash.Full)
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback HASH",
	Short: "Restore the working directory from a save",
	Long: `Restore the working directory from a save.

By default every file in the working directory is removed before the save is
copied back. With --merge, files that are not part of the save are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		autoSave, _ := cmd.Flags().GetBool("save")
		merge, _ := cmd.Flags().GetBool("merge")

		a, err := newRepoApp("rollback")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Rollback(args[0], autoSave, merge)
		if err != nil {
			return err
		}

		if res.AutoSave != nil {
			printInfo(os.Stdout, fmt.Sprintf("Saved current state as %s", res.AutoSave.Hash.Short))
		}
		if res.Cleared {
			printInfo(os.Stdout, "Removed current state")
		}
		printSuccess(os.Stdout, fmt.Sprintf("Rolled back to %s", res.Target.Hash.Short))
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget HASH|all",
	Short: "Remove a save, or every save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := newRepoApp("forget")
		if err != nil {
			return err
		}
		defer a.Close()

		if strings.EqualFold(args[0], "all") {
			if !yes {
				printWarning(os.Stdout, "all saves will be removed!")
				if ok, err := confirm("Do you want to continue?"); err != nil || !ok {
					return abortOn(err)
				}
			}
			n, err := a.ForgetAll()
			if err != nil {
				return err
			}
			printSuccess(os.Stdout, fmt.Sprintf("All saves have been removed (%d)", n))
			return nil
		}

		save, err := a.FindSave(args[0])
		if err != nil {
			return err
		}
		if !yes {
			if ok, err := confirm(fmt.Sprintf("Are you sure you want to remove %s?", save.Hash.Short)); err != nil || !ok {
				return abortOn(err)
			}
		}
		if _, err := a.Forget(save.Hash.Full); err != nil {
			return err
		}
		printSuccess(os.Stdout, fmt.Sprintf("Removed %s", save.Hash.Short))
		return nil
	},
}

// abortOn returns err, or errAborted when the user simply declined.
func abortOn(err error) error {
	if err != nil {
		return err
	}
	return errAborted
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded operations for this repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		rows := make([][]string, 0, len(ops))
		for _, op := range ops {
			duration := ""
			if !op.FinishedAt.IsZero() {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			rows = append(rows, []string{
				op.StartedAt.Local().Format(dateLayout),
				op.Name,
				string(op.Status),
				duration,
				op.Parameters,
			})
		}
		renderTable(os.Stdout, []string{"Started", "Operation", "Status", "Duration", "Parameters"}, rows)
		return nil
	},
}
