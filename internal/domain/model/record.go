package model

import (
	"encoding/json"
	"fmt"
)

// attributesField is the reserved per-record metadata envelope the source
// attaches to every query result. It is not a data field and never reaches
// the warehouse.
const attributesField = "attributes"

// RawRecord is one record as fetched from the source: field name to value,
// possibly including the reserved metadata field and nested object values.
type RawRecord map[string]any

// Row is one warehouse-append-ready record: metadata dropped, nested values
// flattened to text.
type Row map[string]any

// TransformRecord flattens one raw record into a loadable row. The reserved
// metadata field is omitted; object-valued fields (relationship sub-queries,
// address compounds) are replaced by their JSON text; everything else passes
// through unchanged. Transforming an already-flat row is a no-op.
func TransformRecord(rec RawRecord) Row {
	row := make(Row, len(rec))
	for name, value := range rec {
		if name == attributesField {
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			row[name] = serializeNested(nested)
			continue
		}
		row[name] = value
	}
	return row
}

// TransformRecords maps a fetched result set into loadable rows.
func TransformRecords(recs []RawRecord) []Row {
	rows := make([]Row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, TransformRecord(rec))
	}
	return rows
}

// serializeNested renders a nested value as its textual representation.
func serializeNested(v map[string]any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
