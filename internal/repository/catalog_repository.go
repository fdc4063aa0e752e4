package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
)

const productColumns = `p.id, p.name, p.description, p.price, p.photo_ref, p.category_id, p.created_at,
	c.id, c.name, c.slug, c.color, c.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, slug, color, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

func (r *Repository) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	return r.getCategory(ctx, `WHERE id = $1`, id)
}

// GetCategoryBySlug returns the category together with its products, ordered
// by name.
func (r *Repository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c, err := r.getCategory(ctx, `WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}

	products, err := r.queryProducts(ctx, `WHERE p.category_id = $1 ORDER BY p.name ASC`, c.ID)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Category = nil
	}
	c.Products = products
	return c, nil
}

func (r *Repository) getCategory(ctx context.Context, where string, arg any) (*domain.Category, error) {
	var c domain.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, color, created_at FROM categories `+where, arg).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return &c, nil
}

func (r *Repository) CategorySlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE slug = $1 AND id <> $2`, slug, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count categories by slug: %w", err)
	}
	return n > 0, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, color, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Slug, c.Color, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $1, slug = $2, color = $3 WHERE id = $4`,
		c.Name, c.Slug, c.Color, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update category: %w", err)
	}
	return expectOne(res, ErrCategoryNotFound)
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&n); err != nil {
			return fmt.Errorf("count category products: %w", err)
		}
		if n > 0 {
			return ErrCategoryInUse
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrCategoryInUse
			}
			return fmt.Errorf("delete category: %w", err)
		}
		return expectOne(res, ErrCategoryNotFound)
	})
}

// ListProducts returns every product with its category, ordered by name.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, `ORDER BY p.name ASC`)
}

func (r *Repository) ListNewestProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.queryProducts(ctx, `ORDER BY p.created_at DESC LIMIT $1`, limit)
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	products, err := r.queryProducts(ctx, `WHERE p.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return &products[0], nil
}

// PricesByIDs looks up the current catalog entry for each id in one query.
// Ids with no product are absent from the result.
func (r *Repository) PricesByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price FROM products WHERE id IN (`+placeholders(1, len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query product prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product price: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, photo_ref, category_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, nullString(p.Description), p.Price.StringFixed(2), nullString(p.PhotoRef), p.CategoryID, p.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $1, description = $2, price = $3, photo_ref = $4, category_id = $5
		 WHERE id = $6`,
		p.Name, nullString(p.Description), p.Price.StringFixed(2), nullString(p.PhotoRef), p.CategoryID, p.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return expectOne(res, ErrProductNotFound)
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectOne(res, ErrProductNotFound)
}

func (r *Repository) queryProducts(ctx context.Context, tail string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products p JOIN categories c ON c.id = p.category_id `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p           domain.Product
		c           domain.Category
		description sql.NullString
		photo       sql.NullString
	)
	if err := row.Scan(
		&p.ID, &p.Name, &description, &p.Price, &photo, &p.CategoryID, &p.CreatedAt,
		&c.ID, &c.Name, &c.Slug, &c.Color, &c.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}
	p.Description = description.String
	p.PhotoRef = photo.String
	p.Category = &c
	return &p, nil
}

// ListBanners returns banners ordered by position.
func (r *Repository) ListBanners(ctx context.Context, activeOnly bool) ([]domain.Banner, error) {
	query := `SELECT id, title, subtitle, image_url, link, active, position, created_at FROM banners`
	var args []any
	if activeOnly {
		query += ` WHERE active = $1`
		args = append(args, true)
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query banners: %w", err)
	}
	defer rows.Close()

	var banners []domain.Banner
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		banners = append(banners, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return banners, nil
}

func (r *Repository) GetBanner(ctx context.Context, id string) (*domain.Banner, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, subtitle, image_url, link, active, position, created_at FROM banners WHERE id = $1`, id)
	b, err := scanBanner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBannerNotFound
	}
	return b, err
}

func (r *Repository) CreateBanner(ctx context.Context, b *domain.Banner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO banners (id, title, subtitle, image_url, link, active, position, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.Title, nullString(b.Subtitle), b.ImageURL, nullString(b.Link), b.Active, b.Position, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert banner: %w", err)
	}
	return nil
}

func (r *Repository) UpdateBanner(ctx context.Context, b *domain.Banner) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE banners SET title = $1, subtitle = $2, image_url = $3, link = $4, active = $5, position = $6
		 WHERE id = $7`,
		b.Title, nullString(b.Subtitle), b.ImageURL, nullString(b.Link), b.Active, b.Position, b.ID)
	if err != nil {
		return fmt.Errorf("update banner: %w", err)
	}
	return expectOne(res, ErrBannerNotFound)
}

func (r *Repository) SetBannerActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE banners SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("toggle banner: %w", err)
	}
	return expectOne(res, ErrBannerNotFound)
}

func (r *Repository) DeleteBanner(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}
	return expectOne(res, ErrBannerNotFound)
}

func scanBanner(row rowScanner) (*domain.Banner, error) {
	var (
		b        domain.Banner
		subtitle sql.NullString
		link     sql.NullString
	)
	err := row.Scan(&b.ID, &b.Title, &subtitle, &b.ImageURL, &link, &b.Active, &b.Position, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan banner row: %w", err)
	}
	b.Subtitle = subtitle.String
	b.Link = link.String
	return &b, nil
}

// expectOne maps a write that touched no row to notFound.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
