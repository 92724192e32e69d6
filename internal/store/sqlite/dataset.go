// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/curio-dev/curio/internal/store"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// CreateDataset registers a new dataset and returns it with its generated ID.
// The object count starts at zero and is maintained by AppendObjects.
func (s *CatalogStore) CreateDataset(ctx context.Context, meta store.DatasetMeta) (*store.Dataset, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	fieldsJSON, err := json.Marshal(meta.Fields)
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "marshalling dataset fields: %w", err)
	}

	ds := &store.Dataset{
		ID:         uuid.NewString(),
		Name:       meta.Name,
		SourceType: meta.SourceType,
		Filename:   meta.Filename,
		Fields:     meta.Fields,
		CreatedAt:  time.Now().UTC(),
	}

	const q = `INSERT INTO datasets (id, name, source_type, filename, fields, object_count, created_at)
VALUES (?, ?, ?, ?, ?, 0, ?)`
	_, err = s.db.ExecContext(ctx, q,
		ds.ID, ds.Name, ds.SourceType, ds.Filename, string(fieldsJSON), formatTime(ds.CreatedAt),
	)
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "inserting dataset %s: %w", ds.ID, err)
	}

	return ds, nil
}

// GetDataset returns the dataset with the given ID.
func (s *CatalogStore) GetDataset(ctx context.Context, id string) (*store.Dataset, error) {
	const q = `SELECT id, name, source_type, filename, fields, object_count, created_at
FROM datasets WHERE id = ?`

	ds, err := scanDataset(s.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatasetNotFound, "dataset %s: %w", id, sql.ErrNoRows)
	}
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "getting dataset %s: %w", id, err)
	}
	return ds, nil
}

// ListDatasets returns all datasets in creation order.
func (s *CatalogStore) ListDatasets(ctx context.Context) ([]*store.Dataset, error) {
	const q = `SELECT id, name, source_type, filename, fields, object_count, created_at
FROM datasets ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "listing datasets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var datasets []*store.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "scanning dataset row: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "iterating datasets: %w", err)
	}
	return datasets, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for dataset scans.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (*store.Dataset, error) {
	var ds store.Dataset
	var fieldsJSON, createdAt string
	if err := row.Scan(
		&ds.ID, &ds.Name, &ds.SourceType, &ds.Filename,
		&fieldsJSON, &ds.ObjectCount, &createdAt,
	); err != nil {
		return nil, err
	}
	if fieldsJSON != "" && fieldsJSON != "[]" {
		if err := json.Unmarshal([]byte(fieldsJSON), &ds.Fields); err != nil {
			return nil, err
		}
	}
	ds.CreatedAt = parseTime(createdAt)
	return &ds, nil
}
