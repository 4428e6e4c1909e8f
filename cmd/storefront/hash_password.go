package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/storefront/internal/auth"
	"github.com/spf13/cobra"
)

const minPasswordLength = 12

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Reads the admin password from the first line of stdin and prints its bcrypt hash.

Example:
  echo -n 'a long admin password' | storefront hash-password`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if len(password) < minPasswordLength {
			return errors.New("password must be at least 12 characters")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
