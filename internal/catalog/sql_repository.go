package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/db"
	"github.com/fjod/storefront/internal/domain"
)

// SQLRepository implements Repository on PostgreSQL or SQLite. Queries stick to the SQL both
// dialects share.
type SQLRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLRepository(conn *sql.DB) *SQLRepository {
	return &SQLRepository{
		db:  conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const productColumns = `
	p.id, p.name, p.slug, p.description, p.price, p.original_price, p.stock_quantity, p.sku,
	p.images, p.specifications, p.category_id, c.slug, p.brand_id, b.slug,
	p.is_active, p.is_featured, p.created_at, p.updated_at`

const productFrom = `
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

func (r *SQLRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		conds = []string{"p.is_active = TRUE"}
		args  []any
	)

	if filter.Category != "" {
		var categoryID int64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE slug = $1 AND is_active = TRUE`, filter.Category).Scan(&categoryID)
		if errors.Is(err, sql.ErrNoRows) {
			return []domain.Product{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolve category %q: %w", filter.Category, err)
		}
		args = append(args, categoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
		conds = append(conds, fmt.Sprintf(`LOWER(p.name) LIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		conds = append(conds, fmt.Sprintf("p.is_featured = $%d", len(args)))
	}

	query := "SELECT " + productColumns + productFrom +
		" WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY p.created_at DESC, p.id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func (r *SQLRepository) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getProduct(ctx, "p.slug = $1", slug)
}

func (r *SQLRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.getProduct(ctx, "p.id = $1", id)
}

func (r *SQLRepository) getProduct(ctx context.Context, cond string, arg any) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+productFrom+" WHERE "+cond, arg)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, description, image, is_active
		FROM categories
		WHERE is_active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (r *SQLRepository) ListBrands(ctx context.Context) ([]domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, description, image, is_active
		FROM brands
		WHERE is_active = TRUE
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	brands := []domain.Brand{}
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.Image, &b.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}
	return brands, nil
}

// CreateProduct inserts p and fills in its id and timestamps.
func (r *SQLRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	images, specs, err := encodeProductJSON(p)
	if err != nil {
		return err
	}
	now := r.now()

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, slug, description, price, original_price, stock_quantity, sku,
			images, specifications, category_id, brand_id, is_active, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.StockQuantity, p.SKU,
		images, specs, p.CategoryID, p.BrandID, p.IsActive, p.IsFeatured, now, now,
	).Scan(&p.ID)
	if err != nil {
		return mapWriteError("insert product", err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// UpdateProduct overwrites every editable column of the product with p.ID.
func (r *SQLRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	images, specs, err := encodeProductJSON(p)
	if err != nil {
		return err
	}
	now := r.now()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products SET
			name = $1, slug = $2, description = $3, price = $4, original_price = $5,
			stock_quantity = $6, sku = $7, images = $8, specifications = $9,
			category_id = $10, brand_id = $11, is_active = $12, is_featured = $13, updated_at = $14
		WHERE id = $15`,
		p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice,
		p.StockQuantity, p.SKU, images, specs,
		p.CategoryID, p.BrandID, p.IsActive, p.IsFeatured, now,
		p.ID,
	)
	if err != nil {
		return mapWriteError("update product", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (r *SQLRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		p            domain.Product
		images       []byte
		specs        []byte
		categoryID   sql.NullInt64
		categorySlug sql.NullString
		brandID      sql.NullInt64
		brandSlug    sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OriginalPrice, &p.StockQuantity, &p.SKU,
		&images, &specs, &categoryID, &categorySlug, &brandID, &brandSlug,
		&p.IsActive, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, fmt.Errorf("decode images of product %d: %w", p.ID, err)
	}
	if err := json.Unmarshal(specs, &p.Specifications); err != nil {
		return nil, fmt.Errorf("decode specifications of product %d: %w", p.ID, err)
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
		p.CategorySlug = categorySlug.String
	}
	if brandID.Valid {
		p.BrandID = &brandID.Int64
		p.BrandSlug = brandSlug.String
	}
	return &p, nil
}

// encodeProductJSON returns the JSON columns as strings; lib/pq would send []byte as bytea.
func encodeProductJSON(p *domain.Product) (string, string, error) {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	specs := p.Specifications
	if specs == nil {
		specs = map[string]string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return "", "", fmt.Errorf("encode images: %w", err)
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return "", "", fmt.Errorf("encode specifications: %w", err)
	}
	return string(imagesJSON), string(specsJSON), nil
}

func mapWriteError(op string, err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrSlugTaken
	case db.IsForeignKeyViolation(err):
		return ErrUnknownReference
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
