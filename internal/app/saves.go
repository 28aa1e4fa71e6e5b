package app

import (
	"fmt"

	"notty-go/internal/notty"
)

// AutoSaveComment is the comment of the save taken before a rollback.
const AutoSaveComment = "auto-generated: rollback"

// DefaultComment is used when a save is created without a comment.
const DefaultComment = "Not provided."

// Init creates a repository at the working tree.
func (a *NottyApp) Init() error {
	return a.record("", func() error {
		repo, err := notty.CreateRepository(a.repo.Root(), a.store, a.logger, a.clock, a.idgen)
		if err != nil {
			return err
		}
		a.repo = repo
		return nil
	})
}

// Save snapshots the working tree. An empty comment is replaced by DefaultComment.
func (a *NottyApp) Save(comment string) (*notty.Save, error) {
	if comment == "" {
		comment = DefaultComment
	}
	var save *notty.Save
	err := a.record("comment="+comment, func() error {
		var err error
		save, err = a.repo.CreateSave(comment)
		return err
	})
	return save, err
}

// Saves returns every save of the repository.
func (a *NottyApp) Saves() ([]*notty.Save, error) {
	return a.repo.GetAllSaves()
}

// FindSave resolves a short or full hash.
func (a *NottyApp) FindSave(id string) (*notty.Save, error) {
	return a.repo.FindSave(id)
}

// RollbackResult reports what a rollback did.
type RollbackResult struct {
	Target   *notty.Save
	AutoSave *notty.Save
	Cleared  bool
}

// Rollback restores the save identified by id. With autoSave the current state
// is saved first. Unless merge is set the working tree is cleared before the
// restore, so files created after the save disappear.
func (a *NottyApp) Rollback(id string, autoSave, merge bool) (*RollbackResult, error) {
	res := &RollbackResult{}
	params := fmt.Sprintf("hash=%s save=%t merge=%t", id, autoSave, merge)
	err := a.record(params, func() error {
		target, err := a.repo.FindSave(id)
		if err != nil {
			return err
		}
		res.Target = target

		if autoSave {
			if res.AutoSave, err = a.repo.CreateSave(AutoSaveComment); err != nil {
				return fmt.Errorf("saving current state: %w", err)
			}
		}

		if !merge {
			if err := a.repo.ClearWorkingTree(); err != nil {
				return err
			}
			res.Cleared = true
		}

		return a.repo.RollbackSave(target)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Forget removes the save identified by id and returns it.
func (a *NottyApp) Forget(id string) (*notty.Save, error) {
	var save *notty.Save
	err := a.record("hash="+id, func() error {
		var err error
		if save, err = a.repo.FindSave(id); err != nil {
			return err
		}
		return a.repo.RemoveSave(save)
	})
	return save, err
}

// ForgetAll removes every save and returns how many were removed.
func (a *NottyApp) ForgetAll() (int, error) {
	removed := 0
	err := a.record("all", func() error {
		saves, err := a.repo.GetAllSaves()
		if err != nil {
			return err
		}
		for _, save := range saves {
			if err := a.repo.RemoveSave(save); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
