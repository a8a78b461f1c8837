package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const tableColumns = `id, section_id, name, capacity, status, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var i Table
	err := row.Scan(
		&i.ID,
		&i.SectionID,
		&i.Name,
		&i.Capacity,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getTable = `SELECT ` + tableColumns + ` FROM tables WHERE id = $1`

func (q *Queries) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTable, id))
}

// GetTableForUpdate locks the table row until the surrounding transaction ends,
// so the status check and the status write cannot interleave with another order.
const getTableForUpdate = `SELECT ` + tableColumns + ` FROM tables WHERE id = $1 FOR UPDATE`

func (q *Queries) GetTableForUpdate(ctx context.Context, id uuid.UUID) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, getTableForUpdate, id))
}

const listTables = `SELECT ` + tableColumns + ` FROM tables
WHERE ($1::uuid IS NULL OR section_id = $1)
ORDER BY name`

func (q *Queries) ListTables(ctx context.Context, sectionID pgtype.UUID) ([]Table, error) {
	rows, err := q.db.Query(ctx, listTables, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Table{}
	for rows.Next() {
		i, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTable = `INSERT INTO tables (section_id, name, capacity)
VALUES ($1, $2, $3)
RETURNING ` + tableColumns

type CreateTableParams struct {
	SectionID uuid.UUID `json:"section_id"`
	Name      string    `json:"name"`
	Capacity  int32     `json:"capacity"`
}

func (q *Queries) CreateTable(ctx context.Context, arg CreateTableParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, createTable, arg.SectionID, arg.Name, arg.Capacity))
}

const updateTableStatus = `UPDATE tables
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + tableColumns

type UpdateTableStatusParams struct {
	ID     uuid.UUID   `json:"id"`
	Status TableStatus `json:"status"`
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	return scanTable(q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status))
}
