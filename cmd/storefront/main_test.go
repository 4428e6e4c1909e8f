package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "storefront", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(migrateCmd, hashPasswordCmd)
	return root
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, newRoot(), "a long admin password\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("a long admin password")))
}

func TestHashPassword_TooShort(t *testing.T) {
	_, err := run(t, newRoot(), "short\n", "hash-password")
	assert.ErrorContains(t, err, "at least 12 characters")
}

func TestMigrateUp(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:?_pragma=foreign_keys(1)")

	out, err := run(t, newRoot(), "", "migrate", "up")
	require.NoError(t, err)
	assert.Equal(t, "schema version 2\n", out)
}

func TestMigrate_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := run(t, newRoot(), "", "migrate", "version")
	assert.ErrorContains(t, err, "DB_DRIVER")
}
