package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Inspect and patch customer profiles",
}

var userInspectCmd = &cobra.Command{
	Use:   "inspect <email>",
	Short: "Print a profile and its active sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openProfiles(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		report, err := svc.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var userSetPasswordCmd = &cobra.Command{
	Use:   "set-password <email> <password>",
	Short: "Set a bcrypt password for a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openProfiles(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.SetPassword(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
		return nil
	},
}

var userSetCompanyCmd = &cobra.Command{
	Use:   "set-company <email> <company>",
	Short: "Replace the company name of a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openProfiles(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.SetCompany(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "company updated for %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userInspectCmd, userSetPasswordCmd, userSetCompanyCmd)
}
