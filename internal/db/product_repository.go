package db

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/example/inventory-backend/internal/models"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const productsTable = "products"

var productColumns = []string{"id", "name", "price", "stock", "created_at", "updated_at"}

// assignment is one "column = value" pair of an UPDATE.
type assignment struct {
	column string
	value  any
}

// productAssignments maps the set fields of a patch to column assignments,
// always in the order name, price, stock.
func productAssignments(p models.ProductPatch) []assignment {
	var out []assignment
	if p.Name != nil {
		out = append(out, assignment{column: "name", value: *p.Name})
	}
	if p.Price != nil {
		out = append(out, assignment{column: "price", value: *p.Price})
	}
	if p.Stock != nil {
		out = append(out, assignment{column: "stock", value: *p.Stock})
	}
	return out
}

// PostgresProductRepository implements ProductRepository.
type PostgresProductRepository struct {
	pool Pool
}

// NewPostgresProductRepository creates a new product repository.
func NewPostgresProductRepository(pool Pool) *PostgresProductRepository {
	return &PostgresProductRepository{pool: pool}
}

// Create inserts a product and re-reads it by its generated id.
func (r *PostgresProductRepository) Create(ctx context.Context, in models.NewProduct) (*models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query, args, err := psql.Insert(productsTable).
		Columns("name", "price", "stock").
		Values(in.Name, in.Price, in.Stock).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product insert: %w", err)
	}

	var id int64
	if err := conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, mapError(err, "product", in.Name)
	}

	return getProduct(ctx, conn, id)
}

// List returns every product, most recently updated first.
func (r *PostgresProductRepository) List(ctx context.Context) ([]models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query, args, err := psql.Select(productColumns...).
		From(productsTable).
		OrderBy("updated_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product list: %w", err)
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetByID returns ErrNotFound when no row matches.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return getProduct(ctx, conn, id)
}

// Update applies the set fields of patch. The row is read first; an empty
// patch returns it unchanged without issuing a write.
func (r *PostgresProductRepository) Update(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	existing, err := getProduct(ctx, conn, id)
	if err != nil {
		return nil, err
	}

	assignments := productAssignments(patch)
	if len(assignments) == 0 {
		return existing, nil
	}

	builder := psql.Update(productsTable)
	for _, a := range assignments {
		builder = builder.Set(a.column, a.value)
	}
	query, args, err := builder.
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product update: %w", err)
	}

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "product", id)
	}
	if tag.RowsAffected() == 0 {
		// Deleted between the read and the write.
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	return getProduct(ctx, conn, id)
}

// Delete removes the row and returns its last state.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) (*models.Product, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	existing, err := getProduct(ctx, conn, id)
	if err != nil {
		return nil, err
	}

	query, args, err := psql.Delete(productsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product delete: %w", err)
	}

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "product", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	return existing, nil
}

func getProduct(ctx context.Context, conn Conn, id int64) (*models.Product, error) {
	query, args, err := psql.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product select: %w", err)
	}

	p, err := scanProduct(conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "product", id)
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
