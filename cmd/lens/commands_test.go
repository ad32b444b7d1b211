package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lens.db")
	viper.Set("database.path", path)
	t.Cleanup(viper.Reset)
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	useTempDatabase(t)
	csvPath := writeFile(t, t.TempDir(), "giro.csv", netflixCSV)

	out, err := execute(t, analyzeCmd(), "--tenant", "t1", "--store", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored run")
	assert.Contains(t, out, "Recurring contracts")
	assert.Contains(t, out, "Netflix International B.V.")
	assert.Contains(t, out, "65%")

	out, err = execute(t, contractsCmd(), "list", "--tenant", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "Netflix International B.V.")
	assert.Contains(t, out, "monthly")

	out, err = execute(t, contractsCmd(), "list", "--tenant", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "No recurring contracts detected")
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	useTempDatabase(t)
	dir := t.TempDir()
	ws := writeFile(t, dir, "ws.yaml", "tenants:\n  - tenant_id: a\n")

	tests := []struct {
		name string
		args []string
	}{
		{"no files", nil},
		{"nothing matches", []string{filepath.Join(dir, "*.csv")}},
		{"workspace and files", []string{"--workspace", ws, filepath.Join(dir, "x.csv")}},
		{"bad owner file", []string{"--owner", filepath.Join(dir, "missing.yaml"), ws}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, analyzeCmd(), tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestAnalyzeCommand_Workspace(t *testing.T) {
	useTempDatabase(t)
	dir := t.TempDir()
	writeFile(t, dir, "giro.csv", netflixCSV)
	ws := writeFile(t, dir, "ws.yaml", `tenants:
  - tenant_id: anna
    files: [giro.csv]
  - tenant_id: ben
    files: []
`)

	out, err := execute(t, analyzeCmd(), "--workspace", ws, "--entries")
	require.NoError(t, err)
	assert.Contains(t, out, "Report for anna")
	assert.Contains(t, out, "Report for ben")
	assert.Contains(t, out, "Max Mustermann")
	assert.NotContains(t, out, "Stored run")
}

func TestContractsCommand_Select(t *testing.T) {
	useTempDatabase(t)
	csvPath := writeFile(t, t.TempDir(), "giro.csv", netflixCSV)
	_, err := execute(t, analyzeCmd(), "--tenant", "t1", "--store", csvPath)
	require.NoError(t, err)

	settings, err := loadSettings()
	require.NoError(t, err)
	store, err := initStorage(context.Background(), settings)
	require.NoError(t, err)
	contracts, err := store.ListContracts(context.Background(), "t1")
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, contracts, 1)
	id := contracts[0].ID

	out, err := execute(t, contractsCmd(), "deselect", id)
	require.NoError(t, err)
	assert.Contains(t, out, "deselected")

	out, err = execute(t, contractsCmd(), "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "netflix international bv")
	assert.Contains(t, out, "2025-01-15")

	_, err = execute(t, contractsCmd(), "select", "missing")
	assert.Error(t, err)
}

func TestRulesCommand(t *testing.T) {
	useTempDatabase(t)

	out, err := execute(t, rulesCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "rules:")

	path := writeFile(t, t.TempDir(), "rules.yaml", out)
	out, err = execute(t, rulesCmd(), "--check", path)
	require.NoError(t, err)
	assert.Contains(t, out, "rules OK")

	empty := writeFile(t, t.TempDir(), "empty.yaml", "")
	_, err = execute(t, rulesCmd(), "--check", empty)
	assert.Error(t, err)
}
