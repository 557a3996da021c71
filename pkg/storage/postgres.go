package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	"github.com/motoshop/catalog/pkg/types"
)

const (
	selectProducts = `SELECT id, data, created_at FROM products ORDER BY created_at, id`
	selectProduct  = `SELECT id, data, created_at FROM products WHERE id = $1`
	insertProduct  = `INSERT INTO products (id, data) VALUES ($1, $2)`
	updateProduct  = `UPDATE products SET data = $2 WHERE id = $1`
	deleteProduct  = `DELETE FROM products WHERE id = $1`

	uniqueViolation = "23505"
)

// PostgresSource reads products stored as JSON documents in a products table.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	return db, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (types.Product, error) {
	var (
		id        string
		data      []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &data, &createdAt); err != nil {
		return nil, err
	}
	product := types.Product{}
	if err := jsoncompat.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("storage: decode product %s: %w", id, err)
	}
	product[types.FieldId] = id
	if _, ok := product[types.FieldCreatedAt]; !ok {
		product[types.FieldCreatedAt] = createdAt.UTC().Format(time.RFC3339)
	}
	return product, nil
}

func (s *PostgresSource) GetProducts(ctx context.Context) ([]types.Product, error) {
	rows, err := s.db.QueryContext(ctx, selectProducts)
	if err != nil {
		return nil, fmt.Errorf("storage: query products: %w", err)
	}
	defer rows.Close()

	products := make([]types.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate products: %w", err)
	}
	return products, nil
}

func (s *PostgresSource) GetProduct(ctx context.Context, id string) (types.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, selectProduct, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, err
}

func encodeProduct(product types.Product) (string, []byte, error) {
	id := product.GetId()
	if id == "" {
		return "", nil, errors.New("storage: product without id")
	}
	data, err := jsoncompat.Marshal(product)
	if err != nil {
		return "", nil, fmt.Errorf("storage: encode product %s: %w", id, err)
	}
	return id, data, nil
}

func (s *PostgresSource) CreateProduct(ctx context.Context, product types.Product) error {
	id, data, err := encodeProduct(product)
	if err != nil {
		return err
	}
	if _, err = s.db.ExecContext(ctx, insertProduct, id, data); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrProductExists, id)
		}
		return fmt.Errorf("storage: insert product %s: %w", id, err)
	}
	return nil
}

func (s *PostgresSource) UpdateProduct(ctx context.Context, product types.Product) error {
	id, data, err := encodeProduct(product)
	if err != nil {
		return err
	}
	return s.execOne(ctx, updateProduct, id, data)
}

func (s *PostgresSource) DeleteProduct(ctx context.Context, id string) error {
	return s.execOne(ctx, deleteProduct, id)
}

func (s *PostgresSource) execOne(ctx context.Context, query, id string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("storage: write product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: write product %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return nil
}
