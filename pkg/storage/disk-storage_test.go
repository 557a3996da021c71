package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/motoshop/catalog/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProducts() []types.Product {
	return []types.Product{
		{"id": "p1", "name": "AGV K1", "category": "Мотошлемы", "price": 15990.0},
		{"id": "p2", "name": "Motul 7100", "category": "Мотохимия", "price": 1890.0, "viscosity": "10W-40"},
	}
}

func TestDiskStorageRoundTrip(t *testing.T) {
	for _, name := range []string{"products.json", "products.json.gz"} {
		t.Run(name, func(t *testing.T) {
			ds := NewDiskStorage(t.TempDir(), name)
			ctx := context.Background()

			require.NoError(t, ds.SaveProducts(ctx, sampleProducts()))
			products, err := ds.GetProducts(ctx)
			require.NoError(t, err)
			assert.Equal(t, sampleProducts(), products)

			p, err := ds.GetProduct(ctx, "p2")
			require.NoError(t, err)
			assert.Equal(t, "Motul 7100", p.GetTitle())

			_, err = ds.GetProduct(ctx, "missing")
			assert.ErrorIs(t, err, ErrProductNotFound)
		})
	}
}

func TestDiskStorageMissingFile(t *testing.T) {
	ds := NewDiskStorage(t.TempDir(), "products.json.gz")
	_, err := ds.GetProducts(context.Background())
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSaveJsonLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	ds := NewDiskStorage(dir, "")

	require.NoError(t, ds.SaveJson([]string{"a"}, "nested/list.json"))
	require.NoError(t, ds.SaveJson([]string{"b"}, "nested/list.json"))

	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "list.json", entries[0].Name())

	var got []string
	require.NoError(t, ds.LoadJson(&got, "nested/list.json"))
	assert.Equal(t, []string{"b"}, got)

	require.NoError(t, ds.Remove("nested/list.json"))
	require.NoError(t, ds.Remove("nested/list.json"))
}

func TestLoadJsonRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte("not json"), 0o644))
	_, err := NewDiskStorage(dir, "products.json").GetProducts(context.Background())
	assert.Error(t, err)
}
