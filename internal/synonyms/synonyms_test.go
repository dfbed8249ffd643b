package synonyms

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	tbl := New(map[string][]string{
		"error": {"error", "issue", "problem", "bug", "failure"},
	})
	tests := []struct {
		query    string
		want     string
		expanded bool
	}{
		{"Printer error on floor 3", "printer error on floor 3 issue problem bug failure", true},
		{"errors everywhere", "errors everywhere", false},
		{"error: bug in VPN", "error bug in vpn issue problem failure", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := tbl.Expand(tt.query)
		assert.Equal(t, tt.want, got, tt.query)
		assert.Equal(t, tt.expanded, ok, tt.query)
	}
}

func TestDefault(t *testing.T) {
	tbl := Default()
	assert.Greater(t, tbl.Len(), 5)
	got, ok := tbl.Expand("network down")
	assert.True(t, ok)
	assert.Contains(t, got, "vpn")
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Monitor:\n  - display\n  - Screen\n"), 0600))

	tbl := Default()
	require.NoError(t, tbl.Reload(path))
	assert.Equal(t, []string{"monitor"}, tbl.Keys())
	got, ok := tbl.Expand("monitor flickers")
	assert.True(t, ok)
	assert.Equal(t, "monitor flickers display screen", got)

	require.NoError(t, os.WriteFile(path, []byte("monitor: [unclosed"), 0600))
	assert.Error(t, tbl.Reload(path))
	assert.Equal(t, 1, tbl.Len(), "failed reload keeps the previous table")

	assert.Error(t, tbl.Reload(filepath.Join(t.TempDir(), "missing.yaml")))
}
