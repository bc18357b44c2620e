package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/rating-ingest/internal/entity"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "school_names.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"42": "Acme University", "1095": "University of Denver"}`), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, entity.Catalog{42: "Acme University", 1095: "University of Denver"}, c)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, ErrCatalogUnavailable)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":    `{"42": `,
		"non int key": `{"acme": "Acme University"}`,
		"empty name":  `{"42": "  "}`,
		"wrong shape": `["Acme University"]`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			_, err := LoadFile(path)
			require.ErrorIs(t, err, ErrCatalogUnavailable)
		})
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	want := entity.Catalog{1: "Alpha College", 7999: "Omega State"}

	require.NoError(t, WriteFile(path, want))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
