package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/kardex-core/internal/domain/entity"
	"github.com/tu-usuario/kardex-core/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `item_id, location_id, quantity, min_stock, reorder_point, updated_at`

// Get obtiene el stock de un artículo en una ubicación. Si la fila no
// existe devuelve una fila en cero (creación perezosa al primer Upsert).
func (r *StockRepo) Get(ctx context.Context, itemID, locationID string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE item_id = $1 AND location_id = $2`
	return r.scanOne(ctx, query, itemID, locationID)
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE):
// los movimientos sobre la misma llave se serializan; llaves distintas
// avanzan en paralelo. Si la fila no existe todavía, la crea en cero y
// la bloquea: sin fila no hay nada que bloquear, y dos primeros
// movimientos concurrentes sobre la misma llave se pisarían entre sí.
func (r *StockRepo) GetForUpdate(ctx context.Context, itemID, locationID string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE item_id = $1 AND location_id = $2 FOR UPDATE`
	stock, err := r.scanOneLocked(ctx, query, itemID, locationID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	insert := `
		INSERT INTO stock (item_id, location_id, quantity, min_stock, reorder_point, updated_at)
		VALUES ($1, $2, 0, 0, 0, now())
		ON CONFLICT (item_id, location_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, itemID, locationID); err != nil {
		return nil, fmt.Errorf("create stock row: %w", err)
	}
	// El re-SELECT bloquea la fila recién creada; si otra transacción
	// ganó la inserción, bloquea la suya (y espera su commit).
	stock, err = r.scanOneLocked(ctx, query, itemID, locationID)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return stock, nil
}

// Upsert inserta o actualiza la cantidad en stock (por artículo y ubicación).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (item_id, location_id, quantity, min_stock, reorder_point, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		stock.ItemID, stock.LocationID, stock.Quantity, stock.MinStock, stock.ReorderPoint,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// UpdateThresholds inserta o actualiza mínimos y punto de reorden sin
// tocar la cantidad.
func (r *StockRepo) UpdateThresholds(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (item_id, location_id, quantity, min_stock, reorder_point, updated_at)
		VALUES ($1, $2, 0, $3, $4, now())
		ON CONFLICT (item_id, location_id)
		DO UPDATE SET min_stock = EXCLUDED.min_stock, reorder_point = EXCLUDED.reorder_point, updated_at = now()`
	_, err := r.q.Exec(ctx, query,
		stock.ItemID, stock.LocationID, stock.MinStock, stock.ReorderPoint,
	)
	if err != nil {
		return fmt.Errorf("update stock thresholds: %w", err)
	}
	return nil
}

// ListByLocation devuelve todas las filas de stock de una ubicación
// (foto para iniciar un conteo físico).
func (r *StockRepo) ListByLocation(ctx context.Context, locationID string) ([]*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE location_id = $1 ORDER BY item_id`
	rows, err := r.q.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("list stock by location: %w", err)
	}
	return r.scanRows(rows)
}

// ListBelowReorderPoint devuelve las filas en o bajo su punto de reorden.
// locationID vacía considera todas las ubicaciones.
func (r *StockRepo) ListBelowReorderPoint(ctx context.Context, locationID string) ([]*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + ` FROM stock
		WHERE reorder_point > 0 AND quantity <= reorder_point`
	args := []any{}
	if locationID != "" {
		query += ` AND location_id = $1`
		args = append(args, locationID)
	}
	query += ` ORDER BY quantity`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock below reorder point: %w", err)
	}
	return r.scanRows(rows)
}

// scanOneLocked escanea una fila sin fabricar la fila en cero: propaga
// pgx.ErrNoRows para que GetForUpdate pueda crearla de verdad.
func (r *StockRepo) scanOneLocked(ctx context.Context, query, itemID, locationID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, itemID, locationID).Scan(
		&s.ItemID, &s.LocationID, &s.Quantity, &s.MinStock, &s.ReorderPoint, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockRepo) scanOne(ctx context.Context, query, itemID, locationID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, itemID, locationID).Scan(
		&s.ItemID, &s.LocationID, &s.Quantity, &s.MinStock, &s.ReorderPoint, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{
				ItemID:       itemID,
				LocationID:   locationID,
				Quantity:     decimal.Zero,
				MinStock:     decimal.Zero,
				ReorderPoint: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

func (r *StockRepo) scanRows(rows pgx.Rows) ([]*entity.Stock, error) {
	defer rows.Close()
	var stocks []*entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ItemID, &s.LocationID, &s.Quantity, &s.MinStock, &s.ReorderPoint, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		stocks = append(stocks, &s)
	}
	return stocks, rows.Err()
}
