package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var pinUser string

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage a user's app-lock PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the user's PIN (prompted, not echoed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		fmt.Print("New PIN: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("read pin: %w", err)
		}

		t, err := newToolkit(ctx)
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.pins.Set(ctx, pinUser, string(raw)); err != nil {
			return err
		}

		fmt.Println("pin updated")
		return nil
	},
}

var pinDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Remove the user's PIN and unlock the app",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		t, err := newToolkit(ctx)
		if err != nil {
			return err
		}
		defer t.Close()

		if err := t.pins.Disable(ctx, pinUser); err != nil {
			return err
		}

		fmt.Println("pin disabled")
		return nil
	},
}

func init() {
	pinCmd.PersistentFlags().StringVarP(&pinUser, "user", "u", "", "user id")
	_ = pinCmd.MarkPersistentFlagRequired("user")

	pinCmd.AddCommand(pinSetCmd)
	pinCmd.AddCommand(pinDisableCmd)
}
