package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export HASH",
	Short: "Encrypt a save and store it in the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newRepoApp("export")
		if err != nil {
			return err
		}
		defer a.Close()

		save, err := a.Export(args[0])
		if err != nil {
			return err
		}
		printSuccess(os.Stdout, fmt.Sprintf("Exported %s", save.Hash.Short))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FULL_HASH",
	Short: "Restore a save from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newRepoApp("import")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		save, err := a.Import(args[0], passphrase)
		if err != nil {
			return err
		}
		printSuccess(os.Stdout, fmt.Sprintf("Imported %s", save.Hash))
		return nil
	},
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Inspect the archive vault",
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived saves",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("vault list")
		if err != nil {
			return err
		}
		defer a.Close()

		name, hashes, err := a.VaultArchives()
		if err != nil {
			return err
		}
		printBulletList(os.Stdout, fmt.Sprintf("Vault %s: %d", name, len(hashes)), hashes)
		return nil
	},
}
