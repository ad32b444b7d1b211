package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/ledgerlens/internal/config"
	"github.com/Veraticus/ledgerlens/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const netflixCSV = "Buchungstag;Verwendungszweck;Beguenstigter/Zahlungspflichtiger;Betrag\n" +
	"15.01.2025;Netflix Abo;Netflix International B.V.;-12,99\n" +
	"14.02.2025;Netflix Abo;Netflix International B.V.;-12,99\n" +
	"16.03.2025;Netflix Abo;Netflix International B.V.;-12,99\n" +
	"03.01.2025;Miete Januar WE 3;Max Mustermann;950,00\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadOwner(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		check   func(t *testing.T, owner model.OwnerContext)
		name    string
		content string
		wantErr bool
	}{
		{
			name: "property with lease",
			content: `owner_id: house-1
owner_type: property
known_ibans:
  DE89370400440532013000: Girokonto
leases:
  - id: l1
    unit_code: WE 3
    tenant_surname: Mustermann
    expected_warm_rent: 950
`,
			check: func(t *testing.T, owner model.OwnerContext) {
				assert.Equal(t, "house-1", owner.OwnerID)
				assert.Equal(t, model.OwnerProperty, owner.OwnerType)
				require.Len(t, owner.Leases, 1)
				assert.InDelta(t, 950.0, owner.Leases[0].ExpectedWarmRent, 1e-9)
				assert.Equal(t, "Girokonto", owner.KnownIBANs["DE89370400440532013000"])
			},
		},
		{
			name:    "defaults fill id and type",
			content: "leases: []\n",
			check: func(t *testing.T, owner model.OwnerContext) {
				assert.Equal(t, "t1", owner.OwnerID)
				assert.Equal(t, model.OwnerPerson, owner.OwnerType)
			},
		},
		{
			name:    "unknown owner type",
			content: "owner_type: castle\n",
			wantErr: true,
		},
		{
			name:    "unknown field",
			content: "owner_kind: person\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".yaml", tt.content)
			owner, err := loadOwner(path, "t1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, owner)
		})
	}

	t.Run("no file", func(t *testing.T) {
		owner, err := loadOwner("", "t1")
		require.NoError(t, err)
		assert.Equal(t, model.OwnerContext{OwnerID: "t1", OwnerType: model.OwnerPerson}, owner)
	})
}

func TestLoadWorkspace(t *testing.T) {
	dir := t.TempDir()

	t.Run("resolves relative files", func(t *testing.T) {
		path := writeFile(t, dir, "ws.yaml", `tenants:
  - tenant_id: house-1
    owner:
      owner_type: property
    files: [house.csv, /abs/other.csv]
  - tenant_id: anna
    files: [anna/*.csv]
`)
		ws, err := loadWorkspace(path)
		require.NoError(t, err)
		require.Len(t, ws.Tenants, 2)

		assert.Equal(t, []string{filepath.Join(dir, "house.csv"), "/abs/other.csv"}, ws.Tenants[0].Files)
		assert.Equal(t, "house-1", ws.Tenants[0].Owner.OwnerID)
		assert.Equal(t, model.OwnerPerson, ws.Tenants[1].Owner.OwnerType)
	})

	errorCases := map[string]string{
		"empty":     "tenants: []\n",
		"no tenant": "tenants:\n  - files: [a.csv]\n",
		"duplicate": "tenants:\n  - tenant_id: a\n  - tenant_id: a\n",
		"bad owner": "tenants:\n  - tenant_id: a\n    owner:\n      owner_type: castle\n",
	}
	for name, content := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := loadWorkspace(writeFile(t, dir, name+".yaml", content))
			assert.Error(t, err)
		})
	}
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "x")
	b := writeFile(t, dir, "b.csv", "x")
	writeFile(t, dir, "c.ofx", "x")

	files, err := expandPatterns([]string{filepath.Join(dir, "*.csv"), filepath.Join(dir, "missing.csv")})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	_, err = expandPatterns([]string{"[invalid"})
	assert.Error(t, err)
}

func TestReadRows(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "giro.csv", netflixCSV+"kaputt;x;y;1,00\n")
	pdfPath := writeFile(t, dir, "statement.pdf", "%PDF")

	rows, warnings, err := readRows(context.Background(), []string{csvPath, pdfPath}, "t1", "", io.Discard)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "giro", rows[0].AccountID)
	assert.Equal(t, "t1", rows[0].TenantID)

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0].Error(), "giro.csv")
	assert.Contains(t, warnings[1].Error(), "unsupported statement format")
}

func TestReadRows_Canceled(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "giro.csv", netflixCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := readRows(ctx, []string{csvPath}, "t1", "", io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildEngine_RulesPath(t *testing.T) {
	settings, err := config.LoadSettings(viper.New())
	require.NoError(t, err)

	_, err = buildEngine(settings)
	require.NoError(t, err)

	settings.RulesPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = buildEngine(settings)
	assert.Error(t, err)
}
