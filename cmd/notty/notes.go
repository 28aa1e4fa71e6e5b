package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Show and edit the repository notes",
}

var notesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the notes file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newRepoApp("notes show")
		if err != nil {
			return err
		}
		defer a.Close()

		notes, err := a.Notes()
		if err != nil {
			return err
		}
		if notes == "" {
			fmt.Println("(no notes)")
			return nil
		}
		fmt.Print(notes)
		if notes[len(notes)-1] != '\n' {
			fmt.Println()
		}
		return nil
	},
}

var notesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the notes file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newRepoApp("notes clear")
		if err != nil {
			return err
		}
		defer a.Close()

		if ok, err := confirm("Are you sure?"); err != nil || !ok {
			return abortOn(err)
		}
		if err := a.ClearNotes(); err != nil {
			return err
		}
		printSuccess(os.Stdout, "Notes cleared.")
		return nil
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the notes file in your editor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newRepoApp("notes edit")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.EditNotes(); err != nil {
			return err
		}
		printSuccess(os.Stdout, "Notes saved.")
		return nil
	},
}
