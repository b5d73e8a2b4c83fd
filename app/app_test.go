package app

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legaldesk/legaldesk/internal/config"
	"github.com/legaldesk/legaldesk/internal/db"
	"github.com/legaldesk/legaldesk/internal/db/models"
	"github.com/legaldesk/legaldesk/internal/rbac"
)

// resetFlags restores every flag to its default; flag values outlive Execute.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}

		f.Changed = false
	})

	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command against ../etc with a throwaway sqlite file.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	t.Setenv(config.EnvConfigJSON, `{"DB":{"Name":"`+dbPath+`"}}`)

	resetFlags(rootCmd)

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", "../etc/"}, args...))

	err := rootCmd.Execute()

	return out.String(), err
}

func TestCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "app.db")

	_, err := run(t, dbPath, "migrate")
	require.NoError(t, err)

	t.Run("check unknown principal denies", func(t *testing.T) {
		out, err := run(t, dbPath, "authz", "check",
			"--principal-id", "42", "--principal-type", "user", "--capability", "ledger.read")
		require.NoError(t, err)

		var d rbac.Decision
		require.NoError(t, json.Unmarshal([]byte(out), &d))
		assert.False(t, d.Allowed)
		assert.Equal(t, rbac.ReasonPrincipalNotFound, d.Reason)
	})

	t.Run("check rejects capability outside vocabulary", func(t *testing.T) {
		_, err := run(t, dbPath, "authz", "check",
			"--principal-id", "42", "--principal-type", "user", "--capability", "billing.read")
		require.ErrorIs(t, err, rbac.ErrUnknownCapability)
	})

	t.Run("sweep", func(t *testing.T) {
		out, err := run(t, dbPath, "authz", "sweep")
		require.NoError(t, err)
		assert.Contains(t, out, "deleted 0 expired assignments")
	})

	t.Run("reconcile all on empty ledger", func(t *testing.T) {
		out, err := run(t, dbPath, "ledger", "reconcile", "--all")
		require.NoError(t, err)
		assert.JSONEq(t, "[]", out)
	})

	t.Run("reconcile needs a target", func(t *testing.T) {
		_, err := run(t, dbPath, "ledger", "reconcile")
		require.Error(t, err)
	})

	t.Run("config masks password", func(t *testing.T) {
		t.Setenv(config.EnvConfigJSON, `{"DB":{"Name":"`+dbPath+`","Password":"secret"}}`)

		var out bytes.Buffer

		resetFlags(rootCmd)
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"--config", "../etc/", "config", "--json"})
		require.NoError(t, rootCmd.Execute())
		assert.NotContains(t, out.String(), "secret")
	})
}

func TestRoleAdministrationCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "app.db")

	_, err := run(t, dbPath, "migrate")
	require.NoError(t, err)

	gdb, err := db.Open(&config.Config{DB: config.DB{GormEngine: config.EngineSQLite, Name: dbPath}})
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.User{ID: 5, Active: true, Email: "user5@example.com"}).Error)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	user := []string{"--principal-id", "5", "--principal-type", "user"}

	check := func(t *testing.T, instance string) rbac.Decision {
		t.Helper()

		args := append([]string{"authz", "check", "--capability", "ledger.read", "--instance", instance}, user...)

		out, err := run(t, dbPath, args...)
		require.NoError(t, err)

		var d rbac.Decision
		require.NoError(t, json.Unmarshal([]byte(out), &d))

		return d
	}

	cmd := func(args ...string) []string { return append(args, user...) }

	_, err = run(t, dbPath, "authz", "role", "--role", "auditor", "--level", "20", "--description", "Reads ledgers")
	require.NoError(t, err)

	out, err := run(t, dbPath, "authz", "roles")
	require.NoError(t, err)
	assert.Contains(t, out, "auditor\t20\tReads ledgers")

	_, err = run(t, dbPath, "authz", "grant", "--role", "auditor", "--capability", "ledger.read")
	require.NoError(t, err)

	_, err = run(t, dbPath, cmd("authz", "assign", "--role", "auditor", "--scope", "ledger=7,9")...)
	require.NoError(t, err)

	assert.True(t, check(t, "9").Allowed)
	assert.Equal(t, rbac.ReasonOutOfScope, check(t, "8").Reason)

	_, err = run(t, dbPath, cmd("authz", "assign", "--role", "auditor", "--scope", "ledger")...)
	require.ErrorIs(t, err, rbac.ErrInvalidContext)

	_, err = run(t, dbPath, cmd("authz", "assign", "--role", "auditor", "--expires-at", "yesterday")...)
	require.Error(t, err)

	_, err = run(t, dbPath, cmd("authz", "assign", "--role", "auditor", "--expires-at", "2001-01-01T00:00:00Z")...)
	require.NoError(t, err)
	assert.Equal(t, rbac.ReasonNoAssignment, check(t, "7").Reason)

	out, err = run(t, dbPath, "authz", "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 expired assignments")

	_, err = run(t, dbPath, cmd("authz", "assign", "--role", "auditor")...)
	require.NoError(t, err)
	assert.True(t, check(t, "8").Allowed, "an assignment without scopes is unrestricted")

	_, err = run(t, dbPath, "authz", "revoke", "--role", "auditor", "--capability", "ledger.read")
	require.NoError(t, err)
	assert.Equal(t, rbac.ReasonNoGrant, check(t, "7").Reason)

	_, err = run(t, dbPath, "authz", "revoke", "--role", "auditor", "--capability", "ledger.read")
	require.ErrorIs(t, err, rbac.ErrGrantNotFound)

	_, err = run(t, dbPath, cmd("authz", "unassign", "--role", "auditor")...)
	require.NoError(t, err)
	assert.Equal(t, rbac.ReasonNoAssignment, check(t, "7").Reason)

	_, err = run(t, dbPath, cmd("authz", "unassign", "--role", "auditor")...)
	require.ErrorIs(t, err, rbac.ErrAssignmentNotFound)

	_, err = run(t, dbPath, "authz", "assign", "--role", "auditor", "--principal-id", "77", "--principal-type", "user")
	require.ErrorIs(t, err, rbac.ErrPrincipalNotFound)
}
