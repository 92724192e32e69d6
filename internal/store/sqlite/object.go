// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/curio-dev/curio/internal/store"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

const objectColumns = `seq, uid, dataset_id, original_id, title, creator, has_image,
image_url, object_url, metadata, embedding IS NOT NULL, created_at`

// AppendObjects inserts a batch of objects and bumps the dataset's object
// count in one transaction. Insertion order fixes the seq values that drive
// pending selection.
func (s *CatalogStore) AppendObjects(ctx context.Context, datasetID string, batch []store.Object) error {
	if len(batch) == 0 {
		return nil
	}
	for i := range batch {
		if err := batch[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "beginning append transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO objects (uid, dataset_id, original_id, title, creator, has_image, image_url, object_url, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	for i := range batch {
		obj := &batch[i]

		metaJSON := []byte("{}")
		if len(obj.Metadata) > 0 {
			metaJSON, err = json.Marshal(obj.Metadata)
			if err != nil {
				return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "marshalling metadata for object %s: %w", obj.UID, err)
			}
		}

		createdAt := obj.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		if _, err := tx.ExecContext(ctx, q,
			obj.UID, datasetID, obj.OriginalID, obj.Title, obj.Creator,
			obj.HasImage, obj.ImageURL, obj.ObjectURL, string(metaJSON), formatTime(createdAt),
		); err != nil {
			return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "inserting object %s: %w", obj.UID, err)
		}
	}

	const bump = `UPDATE datasets SET object_count = object_count + ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, bump, len(batch), datasetID); err != nil {
		return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "updating object count for dataset %s: %w", datasetID, err)
	}

	if err := tx.Commit(); err != nil {
		return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "committing append for dataset %s: %w", datasetID, err)
	}
	return nil
}

// ListObjects returns objects in scope in insertion order. A non-positive
// limit defaults to 500.
func (s *CatalogStore) ListObjects(ctx context.Context, scope store.Scope, limit int) ([]*store.Object, error) {
	if limit <= 0 {
		limit = 500
	}

	conds, args := scopeConditions(scope)
	q := `SELECT ` + objectColumns + ` FROM objects`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY seq ASC LIMIT ?"
	args = append(args, limit)

	return s.queryObjects(ctx, q, args...)
}

// PendingObjects returns objects without embeddings in insertion order.
// A non-positive limit returns all pending objects.
func (s *CatalogStore) PendingObjects(ctx context.Context, limit int) ([]*store.Object, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	const q = `SELECT ` + objectColumns + ` FROM objects WHERE embedding IS NULL ORDER BY seq ASC LIMIT ?`
	return s.queryObjects(ctx, q, limit)
}

// MarkEmbedded persists a batch of embeddings in one transaction. Only
// objects still missing an embedding are written, so replaying a batch
// after a crashed or retried run cannot overwrite stored vectors.
func (s *CatalogStore) MarkEmbedded(ctx context.Context, updates []store.VectorUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	for i := range updates {
		if err := updates[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "beginning embed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `UPDATE objects SET embedding = ?, embedded_at = ? WHERE uid = ? AND embedding IS NULL`
	now := formatTime(time.Now().UTC())
	for _, upd := range updates {
		blob, err := encodeVector(upd.Vector)
		if err != nil {
			return curioerr.Wrapf(err, curioerr.CodeStoreDatabaseFailure, "encoding embedding for object %s", upd.UID)
		}

		res, err := tx.ExecContext(ctx, q, blob, now, upd.UID)
		if err != nil {
			return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "storing embedding for object %s: %w", upd.UID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "checking rows for object %s: %w", upd.UID, err)
		}
		if rows == 0 {
			// Unknown object or already embedded; only the former is an error.
			var one int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM objects WHERE uid = ?`, upd.UID).Scan(&one)
			if err == sql.ErrNoRows {
				return curioerr.Errorf(curioerr.CodeStoreObjectNotFound, "object %s: %w", upd.UID, sql.ErrNoRows)
			}
			if err != nil {
				return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "checking object %s: %w", upd.UID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "committing embeddings: %w", err)
	}
	return nil
}

// CountObjects returns the number of objects in scope.
func (s *CatalogStore) CountObjects(ctx context.Context, scope store.Scope) (int, error) {
	conds, args := scopeConditions(scope)
	return s.countWhere(ctx, conds, args)
}

// CountEmbedded returns the number of embedded objects in scope. It applies
// the same filter as FetchEmbedded so count comparisons track exactly the
// rows a fetch would return.
func (s *CatalogStore) CountEmbedded(ctx context.Context, scope store.Scope) (int, error) {
	conds, args := scopeConditions(scope)
	conds = append(conds, "embedding IS NOT NULL")
	return s.countWhere(ctx, conds, args)
}

// FetchEmbedded returns every embedded object in scope with its vector, in
// insertion order.
func (s *CatalogStore) FetchEmbedded(ctx context.Context, scope store.Scope) ([]store.EmbeddedObject, error) {
	conds, args := scopeConditions(scope)
	conds = append(conds, "embedding IS NOT NULL")

	q := `SELECT uid, dataset_id, original_id, title, creator, has_image, image_url, object_url, embedding
FROM objects WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "fetching embedded objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.EmbeddedObject
	for rows.Next() {
		var ref store.Ref
		var blob []byte
		if err := rows.Scan(
			&ref.UID, &ref.DatasetID, &ref.OriginalID, &ref.Title, &ref.Creator,
			&ref.HasImage, &ref.ImageURL, &ref.ObjectURL, &blob,
		); err != nil {
			return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "scanning embedded object: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, curioerr.Wrapf(err, curioerr.CodeStoreDatabaseFailure, "decoding embedding for object %s", ref.UID)
		}
		out = append(out, store.EmbeddedObject{Ref: ref, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "iterating embedded objects: %w", err)
	}
	return out, nil
}

// GetObjects returns the objects with the given UIDs, keyed by UID. Unknown
// UIDs are simply absent from the result.
func (s *CatalogStore) GetObjects(ctx context.Context, uids []string) (map[string]*store.Object, error) {
	out := make(map[string]*store.Object, len(uids))
	if len(uids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(uids)), ",")
	q := `SELECT ` + objectColumns + ` FROM objects WHERE uid IN (` + placeholders + `)`

	args := make([]any, len(uids))
	for i, uid := range uids {
		args[i] = uid
	}

	objs, err := s.queryObjects(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	for _, o := range objs {
		out[o.UID] = o
	}
	return out, nil
}

// ---------- query helpers ----------

func (s *CatalogStore) queryObjects(ctx context.Context, q string, args ...any) ([]*store.Object, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "querying objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var objs []*store.Object
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "scanning object row: %w", err)
		}
		objs = append(objs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "iterating objects: %w", err)
	}
	return objs, nil
}

func (s *CatalogStore) countWhere(ctx context.Context, conds []string, args []any) (int, error) {
	q := `SELECT COUNT(*) FROM objects`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "counting objects: %w", err)
	}
	return n, nil
}

func scopeConditions(scope store.Scope) ([]string, []any) {
	var conds []string
	var args []any
	if scope.DatasetID != "" {
		conds = append(conds, "dataset_id = ?")
		args = append(args, scope.DatasetID)
	}
	if scope.ImagesOnly {
		conds = append(conds, "has_image = 1")
	}
	return conds, args
}

func scanObject(row rowScanner) (*store.Object, error) {
	var o store.Object
	var metaJSON, createdAt string
	if err := row.Scan(
		&o.Seq, &o.UID, &o.DatasetID, &o.OriginalID, &o.Title, &o.Creator,
		&o.HasImage, &o.ImageURL, &o.ObjectURL, &metaJSON, &o.Embedded, &createdAt,
	); err != nil {
		return nil, err
	}
	if metaJSON != "" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &o.Metadata); err != nil {
			return nil, err
		}
	}
	o.CreatedAt = parseTime(createdAt)
	return &o, nil
}
