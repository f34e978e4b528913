package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-orders/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a single transaction, rolling everything back if fn
// returns an error. Every multi-row mutation (status write + tracking insert
// + inventory adjustment) goes through here so partial application is
// impossible.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Inventory ledger ---
//
// These three operations are the only code paths allowed to touch
// inventory.quantity / inventory.reserved. Each is a single conditional
// UPDATE, never read-then-write, so concurrent checkouts on the same product
// cannot both pass the availability check.

// ReserveStock atomically checks quantity - reserved >= qty and increments
// reserved. Runs against the caller's transaction so a failed order
// transition rolls the reservation back too.
func (s *Store) ReserveStock(ctx context.Context, ext sqlx.ExtContext, productID int64, qty int) error {
	res, err := ext.ExecContext(ctx, `
		UPDATE inventory
		SET reserved = reserved + $1, updated_at = NOW()
		WHERE product_id = $2 AND quantity - reserved >= $1`,
		qty, productID)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	var inv models.Inventory
	err = sqlx.GetContext(ctx, ext, &inv,
		"SELECT * FROM inventory WHERE product_id = $1", productID)
	if err == sql.ErrNoRows {
		return &models.InsufficientStockError{ProductID: productID, Available: 0, Requested: qty}
	}
	if err != nil {
		return fmt.Errorf("read inventory after failed reserve: %w", err)
	}
	return &models.InsufficientStockError{
		ProductID: productID,
		Available: inv.Available(),
		Requested: qty,
	}
}

// ReleaseStock returns reserved units to sellable stock, flooring at zero.
func (s *Store) ReleaseStock(ctx context.Context, ext sqlx.ExtContext, productID int64, qty int) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE inventory
		SET reserved = GREATEST(reserved - $1, 0), updated_at = NOW()
		WHERE product_id = $2`,
		qty, productID)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	return nil
}

// CommitStock removes delivered units from both quantity and reserved.
func (s *Store) CommitStock(ctx context.Context, ext sqlx.ExtContext, productID int64, qty int) error {
	_, err := ext.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = GREATEST(quantity - $1, 0),
		    reserved = GREATEST(reserved - $1, 0),
		    updated_at = NOW()
		WHERE product_id = $2`,
		qty, productID)
	if err != nil {
		return fmt.Errorf("commit stock: %w", err)
	}
	return nil
}

// GetInventory retrieves inventory for a product
func (s *Store) GetInventory(ctx context.Context, productID int64) (*models.Inventory, error) {
	var inv models.Inventory
	err := s.db.GetContext(ctx, &inv, "SELECT * FROM inventory WHERE product_id = $1", productID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("inventory not found for product: %d", productID)
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// --- Catalog reads (the core only needs price and stock) ---

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// GetUserByID retrieves a user (name/email for search and notifications)
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAddressByID retrieves an address owned by the given user
func (s *Store) GetAddressByID(ctx context.Context, id, userID int64) (*models.Address, error) {
	var addr models.Address
	err := s.db.GetContext(ctx, &addr,
		"SELECT * FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	if err == sql.ErrNoRows {
		return nil, models.ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// GetCouponByCode retrieves a coupon by its code
func (s *Store) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := s.db.GetContext(ctx, &coupon, "SELECT * FROM coupons WHERE code = $1", code)
	if err == sql.ErrNoRows {
		return nil, models.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
