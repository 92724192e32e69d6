// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package ingest turns uploaded CSV documents into catalog datasets and
// objects. The header row names the metadata fields; every data row
// becomes one Object with its full field map retained.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"

	"github.com/curio-dev/curio/internal/store"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// appendChunkSize bounds how many objects go to the store per call so a
// large upload does not pin one giant transaction.
const appendChunkSize = 500

// Ingester parses CSV uploads into new datasets.
type Ingester struct {
	store store.CatalogStore
}

// NewIngester returns an Ingester writing to st.
func NewIngester(st store.CatalogStore) *Ingester {
	return &Ingester{store: st}
}

// Ingest reads one CSV document from r and persists it as a new dataset.
// The returned Dataset carries the final object count. Rows with no named,
// non-empty cells are dropped; a document without a usable header or any
// usable rows fails before anything is written.
func (ing *Ingester) Ingest(ctx context.Context, meta store.DatasetMeta, r io.Reader) (*store.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // museum exports are often ragged

	fields, cols, err := readHeader(cr)
	if err != nil {
		return nil, err
	}

	records, usable, err := readRows(cr, fields)
	if err != nil {
		return nil, err
	}
	if usable == 0 {
		return nil, curioerr.New(curioerr.CodeIngestParseInvalidFormat, "document has no data rows")
	}

	if meta.Name == "" {
		meta.Name = meta.Filename
	}
	if meta.SourceType == "" {
		meta.SourceType = "museum"
	}
	meta.Fields = fields

	ds, err := ing.store.CreateDataset(ctx, meta)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	chunk := make([]store.Object, 0, appendChunkSize)
	total := 0
	for i, record := range records {
		if !rowUsable(fields, record) {
			continue
		}
		chunk = append(chunk, buildObject(ds.ID, fields, cols, record, i+1, seen))
		total++
		if len(chunk) == appendChunkSize {
			if err := ing.store.AppendObjects(ctx, ds.ID, chunk); err != nil {
				return nil, err
			}
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		if err := ing.store.AppendObjects(ctx, ds.ID, chunk); err != nil {
			return nil, err
		}
	}

	ds.ObjectCount = total
	slog.Info("dataset ingested", "dataset", ds.ID, "name", ds.Name, "objects", total)
	return ds, nil
}

// readHeader consumes the header row and returns the trimmed field names
// alongside their column lookup.
func readHeader(cr *csv.Reader) ([]string, columns, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, curioerr.New(curioerr.CodeIngestParseInvalidFormat, "document is empty")
	}
	if err != nil {
		return nil, nil, curioerr.Wrap(err, curioerr.CodeIngestParseInvalidFormat, "reading header")
	}

	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	fields := make([]string, len(header))
	for i, name := range header {
		fields[i] = strings.TrimSpace(name)
	}

	cols := columnIndex(fields)
	if len(cols) == 0 {
		return nil, nil, curioerr.New(curioerr.CodeIngestParseInvalidFormat, "header has no field names")
	}
	return fields, cols, nil
}

// readRows drains the remaining records. usable counts rows that carry at
// least one named, non-empty cell.
func readRows(cr *csv.Reader, fields []string) (records [][]string, usable int, err error) {
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return records, usable, nil
		}
		if err != nil {
			return nil, 0, curioerr.Wrap(err, curioerr.CodeIngestParseInvalidFormat, "parsing rows")
		}
		if rowUsable(fields, record) {
			usable++
		}
		records = append(records, record)
	}
}
