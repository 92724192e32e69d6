// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package ingest

import (
	"strconv"
	"strings"

	"github.com/curio-dev/curio/internal/store"
)

// Alias lists for the projected display fields, checked in order against
// lower-cased header names. The Met export's names come first; the
// generic forms cover other collections' dumps.
var (
	idAliases      = []string{"objectid", "id"}
	titleAliases   = []string{"title"}
	creatorAliases = []string{"artistdisplayname", "creator", "artist"}
	imageAliases   = []string{"primaryimage", "primaryimagesmall", "image_url"}
	linkAliases    = []string{"objecturl", "object_url"}
)

// columns maps lower-cased header names to their first column index.
type columns map[string]int

func columnIndex(fields []string) columns {
	cols := make(columns, len(fields))
	for i, name := range fields {
		key := strings.ToLower(name)
		if key == "" {
			continue
		}
		if _, ok := cols[key]; !ok {
			cols[key] = i
		}
	}
	return cols
}

// value returns the first non-empty cell among the alias names.
func (c columns) value(record []string, aliases []string) string {
	for _, alias := range aliases {
		i, ok := c[alias]
		if !ok || i >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[i]); v != "" {
			return v
		}
	}
	return ""
}

// rowUsable reports whether the record has at least one named, non-empty
// cell. Cells beyond the header width have no name and do not count.
func rowUsable(fields, record []string) bool {
	for i, name := range fields {
		if name == "" || i >= len(record) {
			continue
		}
		if strings.TrimSpace(record[i]) != "" {
			return true
		}
	}
	return false
}

// buildObject maps one usable record onto an Object. rowNum is the 1-based
// position among the document's data rows and backs the identifier when the
// record has none of its own.
func buildObject(datasetID string, fields []string, cols columns, record []string, rowNum int, seen map[string]int) store.Object {
	metadata := make(map[string]string, len(fields))
	for i, name := range fields {
		if name == "" || i >= len(record) {
			continue
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			continue
		}
		if _, ok := metadata[name]; !ok {
			metadata[name] = v
		}
	}

	originalID := cols.value(record, idAliases)
	if originalID == "" {
		originalID = strconv.Itoa(rowNum)
	}
	imageURL := cols.value(record, imageAliases)

	return store.Object{
		UID:        uniqueUID(datasetID, originalID, seen),
		DatasetID:  datasetID,
		OriginalID: originalID,
		Title:      cols.value(record, titleAliases),
		Creator:    cols.value(record, creatorAliases),
		HasImage:   imageURL != "",
		ImageURL:   imageURL,
		ObjectURL:  cols.value(record, linkAliases),
		Metadata:   metadata,
	}
}

// uniqueUID derives "<dataset>:<originalID>", marking repeat originals with
// a "#<occurrence>" suffix so uids never collide within one document.
func uniqueUID(datasetID, originalID string, seen map[string]int) string {
	uid := datasetID + ":" + originalID
	seen[originalID]++
	if n := seen[originalID]; n > 1 {
		return uid + "#" + strconv.Itoa(n)
	}
	return uid
}
