package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"notty-go/internal/todo"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage the repository todo list",
}

var todoShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display all tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, done, err := loadTodo("todo show")
		if err != nil {
			return err
		}
		defer done()

		rows := make([][]string, 0, len(list.Tasks()))
		for i, t := range list.Tasks() {
			content := t.Content
			if t.State == todo.Finished {
				content = color.HiBlackString(content)
			}
			rows = append(rows, []string{strconv.Itoa(i), content, t.State.String(), t.Importance.String()})
		}
		renderTable(os.Stdout, []string{"", "CONTENT", "STATE", "IMPORTANCE"}, rows)
		return nil
	},
}

var todoAddCmd = &cobra.Command{
	Use:   "add CONTENT [IMPORTANCE]",
	Short: "Add a pending task",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		importance := todo.Low
		if len(args) == 2 {
			imp, err := todo.ParseImportance(args[1])
			if err != nil {
				printWarning(os.Stdout, fmt.Sprintf("Invalid importance level: %s. [L]ow/[M]edium/[H]igh", args[1]))
			} else {
				importance = imp
			}
		}

		list, done, err := loadTodo("todo add")
		if err != nil {
			return err
		}
		defer done()

		return list.Add(args[0], importance)
	},
}

var todoRmCmd = &cobra.Command{
	Use:   "rm INDEX",
	Short: "Remove a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		list, done, err := loadTodo("todo rm")
		if err != nil {
			return err
		}
		defer done()

		return list.Remove(index)
	},
}

var todoImpCmd = &cobra.Command{
	Use:   "imp INDEX LEVEL",
	Short: "Change a task's importance ([l]ow/[m]edium/[h]igh or +/-)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		list, done, err := loadTodo("todo imp")
		if err != nil {
			return err
		}
		defer done()

		return list.SetImportance(index, args[1])
	},
}

var todoStateCmd = &cobra.Command{
	Use:   "state INDEX LEVEL",
	Short: "Change a task's state ([p]ending/[i]n_progress/[f]inished or +/-)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		list, done, err := loadTodo("todo state")
		if err != nil {
			return err
		}
		defer done()

		return list.SetState(index, args[1])
	},
}

// loadTodo opens the app and the todo list. done closes the app.
func loadTodo(operation string) (*todo.List, func(), error) {
	a, err := newRepoApp(operation)
	if err != nil {
		return nil, nil, err
	}
	list, err := a.Todo()
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return list, func() { a.Close() }, nil
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", todo.ErrInvalidIndex, s)
	}
	return index, nil
}
