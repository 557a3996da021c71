package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/motoshop/catalog/pkg/types"
)

var (
	ErrProductNotFound = errors.New("storage: product not found")
	ErrProductExists   = errors.New("storage: product already exists")
)

// ProductSource delivers the product collection. The engine never writes through it.
type ProductSource interface {
	GetProducts(ctx context.Context) ([]types.Product, error)
	GetProduct(ctx context.Context, id string) (types.Product, error)
}

// ProductWriter is implemented by sources that support the admin CRUD operations.
type ProductWriter interface {
	CreateProduct(ctx context.Context, product types.Product) error
	UpdateProduct(ctx context.Context, product types.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type DiskStorage struct {
	RootFolder   string
	ProductsFile string
}

func NewDiskStorage(rootFolder, productsFile string) *DiskStorage {
	return &DiskStorage{
		RootFolder:   rootFolder,
		ProductsFile: productsFile,
	}
}

// GetFileName returns the path of name and a unique temporary path next to it.
func (ds *DiskStorage) GetFileName(name string) (string, string) {
	fileName := path.Join(ds.RootFolder, name)
	tmpFileName := fileName + ".tmp-" + fmt.Sprintf("%d", time.Now().UnixNano())
	return fileName, tmpFileName
}
