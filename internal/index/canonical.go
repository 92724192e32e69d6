// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package index drives the embedding pipeline: it selects pending objects,
// builds their canonical text, calls the embedding model once per batch,
// and persists the vectors atomically.
package index

import (
	"slices"
	"strings"
)

// textSlots lists the description fields sent to the embedding model, most
// informative first. Each slot resolves through its aliases against the
// raw record, case-insensitively; the first hit wins.
var textSlots = [][]string{
	{"title"},
	{"objectname", "type"},
	{"artistdisplayname", "creator", "artist"},
	{"culture"},
	{"medium"},
	{"classification"},
	{"department", "category"},
}

// CanonicalText composes the model input for one object: the values of the
// known description fields joined with " | ". A record matching none of
// the slots falls back to every non-empty field in field-name order, so an
// arbitrary CSV still embeds to something stable. Returns "" when the
// record holds no usable text at all.
func CanonicalText(fields map[string]string) string {
	folded := foldKeys(fields)

	var parts []string
	for _, aliases := range textSlots {
		for _, alias := range aliases {
			if v, ok := folded[alias]; ok {
				parts = append(parts, v)
				break
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " | ")
	}

	names := make([]string, 0, len(fields))
	for name, v := range fields {
		if strings.TrimSpace(v) != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		parts = append(parts, strings.TrimSpace(fields[name]))
	}
	return strings.Join(parts, " | ")
}

// foldKeys returns a lower-cased view of the record with empty values
// dropped. When two raw names collide after folding, the lexicographically
// smaller raw name wins.
func foldKeys(fields map[string]string) map[string]string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make(map[string]string, len(fields))
	for _, name := range names {
		v := strings.TrimSpace(fields[name])
		if v == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := out[key]; !ok {
			out[key] = v
		}
	}
	return out
}
