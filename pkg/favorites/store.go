package favorites

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"regexp"

	"github.com/motoshop/catalog/pkg/storage"
	"github.com/motoshop/catalog/pkg/types"
)

var ErrEmptyId = errors.New("favorites: product without id")

// Store persists the favorites list of an owner. The list is always read and
// written whole.
type Store interface {
	Load(ctx context.Context, owner string) ([]types.Product, error)
	Save(ctx context.Context, owner string, list []types.Product) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// DiskStore keeps one JSON file per owner.
type DiskStore struct {
	storage *storage.DiskStorage
}

func NewDiskStore(rootFolder string) *DiskStore {
	return &DiskStore{storage: storage.NewDiskStorage(rootFolder, "")}
}

func fileName(owner string) string {
	return fmt.Sprintf("favorites/%s.json", unsafeChars.ReplaceAllString(owner, "_"))
}

func (s *DiskStore) Load(ctx context.Context, owner string) ([]types.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]types.Product, 0)
	err := s.storage.LoadJson(&list, fileName(owner))
	if errors.Is(err, fs.ErrNotExist) {
		return []types.Product{}, nil
	}
	return list, err
}

func (s *DiskStore) Save(ctx context.Context, owner string, list []types.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.storage.SaveJson(list, fileName(owner))
}
