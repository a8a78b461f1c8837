package database

import (
	"context"

	"github.com/google/uuid"
)

const createSection = `INSERT INTO sections (name) VALUES ($1)
RETURNING id, name, created_at`

func (q *Queries) CreateSection(ctx context.Context, name string) (Section, error) {
	row := q.db.QueryRow(ctx, createSection, name)
	var i Section
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const getSection = `SELECT id, name, created_at FROM sections WHERE id = $1`

func (q *Queries) GetSection(ctx context.Context, id uuid.UUID) (Section, error) {
	row := q.db.QueryRow(ctx, getSection, id)
	var i Section
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)
	return i, err
}

const listSections = `SELECT id, name, created_at FROM sections ORDER BY name`

func (q *Queries) ListSections(ctx context.Context) ([]Section, error) {
	rows, err := q.db.Query(ctx, listSections)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Section{}
	for rows.Next() {
		var i Section
		if err := rows.Scan(&i.ID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
