package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var encryptLegacyUser string

var encryptLegacyCmd = &cobra.Command{
	Use:   "encrypt-legacy",
	Short: "Encrypt a user's remaining plaintext entries in place",
	Long: `Walks every entry the user has and encrypts the ones written before
encryption shipped. Already-encrypted entries are left untouched, so the
command is safe to re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		t, err := newToolkit(ctx)
		if err != nil {
			return err
		}
		defer t.Close()

		report, err := t.diary.EncryptLegacy(ctx, encryptLegacyUser)
		if err != nil {
			return err
		}

		fmt.Printf("entries: %d total, %d migrated, %d already encrypted\n",
			report.Total, report.Migrated, report.Encrypted)
		return nil
	},
}

func init() {
	encryptLegacyCmd.Flags().StringVarP(&encryptLegacyUser, "user", "u", "", "user id to migrate")
	_ = encryptLegacyCmd.MarkFlagRequired("user")
}
