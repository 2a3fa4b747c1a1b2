package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var saltInspectUser string

var saltCmd = &cobra.Command{
	Use:   "salt",
	Short: "Work with per-user encryption salts",
}

var saltInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show which storage tiers hold the user's salt",
	Long: `Reports salt presence per tier (cache, database, legacy local file)
without printing the salt itself. Useful when a user reports entries that no
longer decrypt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		t, err := newToolkit(ctx)
		if err != nil {
			return err
		}
		defer t.Close()

		presence, err := t.salts.Inspect(ctx, saltInspectUser)
		if err != nil {
			return err
		}

		yesNo := func(b bool) string {
			if b {
				return "yes"
			}
			return "no"
		}
		fmt.Printf("cache:    %s\n", yesNo(presence.Cache))
		fmt.Printf("database: %s\n", yesNo(presence.Durable))
		fmt.Printf("local:    %s\n", yesNo(presence.Local))
		return nil
	},
}

func init() {
	saltInspectCmd.Flags().StringVarP(&saltInspectUser, "user", "u", "", "user id to inspect")
	_ = saltInspectCmd.MarkFlagRequired("user")

	saltCmd.AddCommand(saltInspectCmd)
}
