package app

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"notty-go/internal/notty"
)

// DefaultEditor is run by EditNotes when neither the config nor $EDITOR name one.
const DefaultEditor = "vi"

func (a *NottyApp) requireRepository(op string) error {
	if !a.Initialized() {
		return &notty.Error{Kind: notty.KindStructural, Op: op, Err: notty.ErrNotInitialized}
	}
	return nil
}

// Notes returns the content of the notes file.
func (a *NottyApp) Notes() (string, error) {
	if err := a.requireRepository("show notes"); err != nil {
		return "", err
	}
	data, err := os.ReadFile(a.repo.NotesPath())
	if err != nil {
		return "", fmt.Errorf("reading notes: %w", err)
	}
	return string(data), nil
}

// ClearNotes empties the notes file.
func (a *NottyApp) ClearNotes() error {
	if err := a.requireRepository("clear notes"); err != nil {
		return err
	}
	if err := notty.WriteFileAtomic(a.repo.NotesPath(), nil, 0644); err != nil {
		return fmt.Errorf("clearing notes: %w", err)
	}
	a.logger.Info("notes cleared")
	return nil
}

// EditNotes opens the notes file in the user's editor and waits for it to exit.
func (a *NottyApp) EditNotes() error {
	if err := a.requireRepository("edit notes"); err != nil {
		return err
	}
	argv, err := a.editorCommand()
	if err != nil {
		return err
	}

	cmd := exec.Command(argv[0], append(argv[1:], a.repo.NotesPath())...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor %s: %w", argv[0], err)
	}
	a.logger.Info("notes edited", "editor", argv[0])
	return nil
}

// editorCommand resolves the editor from the config, then $EDITOR, then
// DefaultEditor, split with shell quoting rules.
func (a *NottyApp) editorCommand() ([]string, error) {
	editor := a.cfg.Editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = DefaultEditor
	}

	argv, err := shellquote.Split(editor)
	if err != nil {
		return nil, fmt.Errorf("parsing editor command %q: %w", editor, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty editor command")
	}
	return argv, nil
}
