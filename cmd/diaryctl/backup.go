package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backupUser string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export a user's entries to object storage",
	Long: `Uploads the user's entries as one JSON object to the configured S3
bucket. Content is exported in its encrypted form; the backup is unreadable
without the user's key material.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		t, err := newToolkit(ctx)
		if err != nil {
			return err
		}
		defer t.Close()

		key, err := t.backup.Export(ctx, backupUser)
		if err != nil {
			return err
		}

		fmt.Printf("uploaded %s\n", key)
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVarP(&backupUser, "user", "u", "", "user id to export")
	_ = backupCmd.MarkFlagRequired("user")
}
