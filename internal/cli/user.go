package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IYouKnow/zfs-stats/pkg/user"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long: `Add, remove, and list users allowed to log in to the HTTP interface.
While no user exists the interface is open.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME [PASSWORD]",
	Short: "Add a new user (password is read from stdin if omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getUserStore()
		if err != nil {
			return err
		}

		username := args[0]
		var password string
		if len(args) == 2 {
			password = args[1]
		} else {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if password == "" {
			return fmt.Errorf("password must not be empty")
		}

		if err := store.Add(username, password); err != nil {
			return err
		}
		if err := store.Save(); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s created in %s.\n", username, store.Path())
		return nil
	},
}

var userRmCmd = &cobra.Command{
	Use:   "rm USERNAME",
	Short: "Remove a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getUserStore()
		if err != nil {
			return err
		}

		username := args[0]
		if !store.Remove(username) {
			return fmt.Errorf("user %s does not exist", username)
		}
		if err := store.Save(); err != nil {
			return fmt.Errorf("failed to save changes: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User %s removed.\n", username)
		return nil
	},
}

var userLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := getUserStore()
		if err != nil {
			return err
		}

		users := store.List()
		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
			return nil
		}
		for _, u := range users {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userRmCmd)
	userCmd.AddCommand(userLsCmd)
}

func getUserStore() (*user.Store, error) {
	return user.Open(loadConfig().UsersFile)
}
