// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package engine

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	qerrors "querydeck/cli/internal/errors"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// encodeRows renders rows as a JSON array, never as null.
func encodeRows(name string, rows []Row) (json.RawMessage, error) {
	if rows == nil {
		rows = []Row{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.MalformedDownstreamResponse, name+" returned values that cannot be encoded", err).
			WithDetails(err.Error())
	}
	return b, nil
}

// scalar converts driver values into JSON friendly scalars. Timestamps become
// RFC 3339 strings, UUID byte arrays become their canonical text form and
// other byte slices become text when they are valid UTF-8.
func scalar(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 16 && !utf8.Valid(v) {
			return formatUUID(v)
		}
		if utf8.Valid(v) {
			return string(v)
		}
		return fmt.Sprintf("\\x%x", v)
	case [16]byte:
		return formatUUID(v[:])
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

func formatUUID(v []byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
		v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
}
