package storage

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	"github.com/motoshop/catalog/pkg/types"
)

func isGzipped(name string) bool {
	return strings.HasSuffix(name, ".gz") || strings.HasSuffix(name, ".jz")
}

// LoadJson decodes the named file into data. Files ending in .gz are gunzipped.
// A missing file returns an error wrapping fs.ErrNotExist.
func (ds *DiskStorage) LoadJson(data any, name string) error {
	fileName, _ := ds.GetFileName(name)
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	var reader io.Reader = file
	if isGzipped(name) {
		zipReader, err := gzip.NewReader(file)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer zipReader.Close()
		reader = zipReader
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := jsoncompat.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// SaveJson writes data to a temporary file and renames it into place, so readers
// only ever see a complete file.
func (ds *DiskStorage) SaveJson(data any, name string) error {
	fileName, tmpFileName := ds.GetFileName(name)
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	raw, err := jsoncompat.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	file, err := os.Create(tmpFileName)
	if err != nil {
		return err
	}
	var writeErr error
	if isGzipped(name) {
		zipWriter := gzip.NewWriter(file)
		_, writeErr = zipWriter.Write(raw)
		writeErr = errors.Join(writeErr, zipWriter.Close())
	} else {
		_, writeErr = file.Write(raw)
	}
	if err := errors.Join(writeErr, file.Close()); err != nil {
		_ = os.Remove(tmpFileName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmpFileName, fileName)
}

func (ds *DiskStorage) Remove(name string) error {
	fileName, _ := ds.GetFileName(name)
	if err := os.Remove(fileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// GetProducts reads the products file, a JSON array of product objects.
func (ds *DiskStorage) GetProducts(ctx context.Context) ([]types.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	products := make([]types.Product, 0)
	if err := ds.LoadJson(&products, ds.ProductsFile); err != nil {
		return nil, err
	}
	return slices.DeleteFunc(products, func(p types.Product) bool { return p == nil }), nil
}

func (ds *DiskStorage) GetProduct(ctx context.Context, id string) (types.Product, error) {
	products, err := ds.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.GetId() == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

func (ds *DiskStorage) SaveProducts(ctx context.Context, products []types.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ds.SaveJson(products, ds.ProductsFile)
}
