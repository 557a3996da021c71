package cart

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/motoshop/catalog/pkg/storage"
	"github.com/motoshop/catalog/pkg/types"
)

var (
	ErrOrderNotFound = errors.New("cart: order not found")
	ErrInvalidItem   = errors.New("cart: product without id")
)

type CartItem struct {
	Id        string    `json:"id"`
	ProductId string    `json:"productId"`
	Title     string    `json:"title,omitempty"`
	Price     float64   `json:"price"`
	Discount  float64   `json:"discount,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// UnitPrice is the price after discount, rounded to whole currency units.
func (i CartItem) UnitPrice() float64 {
	if i.Discount <= 0 || i.Discount >= 100 {
		return i.Price
	}
	return math.Round(i.Price * (100 - i.Discount) / 100)
}

type Cart struct {
	Owner      string     `json:"owner"`
	Items      []CartItem `json:"items"`
	TotalPrice float64    `json:"total_price"`
}

type CartStorage interface {
	AddOrder(ctx context.Context, owner string, product types.Product, quantity int) (*Cart, *CartItem, error)
	DeleteOrder(ctx context.Context, owner, orderId string) (*Cart, error)
	GetCart(ctx context.Context, owner string) (*Cart, error)
}

// DiskCartStorage keeps one JSON document per owner.
type DiskCartStorage struct {
	mu      sync.Mutex
	storage *storage.DiskStorage
}

func NewDiskCartStorage(path string) *DiskCartStorage {
	return &DiskCartStorage{storage: storage.NewDiskStorage(path, "")}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func cartFile(owner string) string {
	return fmt.Sprintf("carts/%s.json", unsafeChars.ReplaceAllString(owner, "_"))
}

func cartPrice(cart *Cart) float64 {
	total := 0.0
	for _, item := range cart.Items {
		total += item.UnitPrice() * float64(item.Quantity)
	}
	return total
}

func (s *DiskCartStorage) load(owner string) (*Cart, error) {
	cart := &Cart{Owner: owner, Items: []CartItem{}}
	err := s.storage.LoadJson(cart, cartFile(owner))
	if errors.Is(err, fs.ErrNotExist) {
		return cart, nil
	}
	return cart, err
}

func (s *DiskCartStorage) save(cart *Cart) error {
	cart.TotalPrice = cartPrice(cart)
	return s.storage.SaveJson(cart, cartFile(cart.Owner))
}

func (s *DiskCartStorage) GetCart(ctx context.Context, owner string) (*Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(owner)
}

// AddOrder puts the product in the owner's cart, raising the quantity when it is
// already there.
func (s *DiskCartStorage) AddOrder(ctx context.Context, owner string, product types.Product, quantity int) (*Cart, *CartItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	productId := product.GetId()
	if productId == "" {
		return nil, nil, ErrInvalidItem
	}
	quantity = max(quantity, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	cart, err := s.load(owner)
	if err != nil {
		return nil, nil, err
	}
	idx := slices.IndexFunc(cart.Items, func(i CartItem) bool { return i.ProductId == productId })
	if idx >= 0 {
		cart.Items[idx].Quantity += quantity
	} else {
		cart.Items = append(cart.Items, CartItem{
			Id:        uuid.NewString(),
			ProductId: productId,
			Title:     product.GetTitle(),
			Price:     product.GetPrice(),
			Discount:  product.GetDiscount(),
			Quantity:  quantity,
			AddedAt:   time.Now().UTC(),
		})
		idx = len(cart.Items) - 1
	}
	if err := s.save(cart); err != nil {
		return nil, nil, err
	}
	item := cart.Items[idx]
	return cart, &item, nil
}

func (s *DiskCartStorage) DeleteOrder(ctx context.Context, owner, orderId string) (*Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, err := s.load(owner)
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(cart.Items, func(i CartItem) bool { return i.Id == orderId })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderId)
	}
	cart.Items = slices.Delete(cart.Items, idx, idx+1)
	if err := s.save(cart); err != nil {
		return nil, err
	}
	return cart, nil
}
