package model

import "strings"

// FieldDescriptor is one field of a source object type as reported by the
// source's describe call. Fetched fresh on every run, never persisted.
type FieldDescriptor struct {
	Name       string
	SourceType string
}

// Column is one destination table column with its mapped warehouse type.
type Column struct {
	Name string
	Type string
}

// ColumnSchema is the full destination column set for one run, derived 1:1
// from the describe result. Recomputed every run; existing tables are never
// reconciled against it.
type ColumnSchema []Column

// destinationTypes is the exact allow-list of warehouse primitive types.
// Membership is tested as "TYPE," substring containment against this
// comma-delimited string, reproducing the upstream mapping behavior.
const destinationTypes = "ARRAY, BIGNUMERIC, BOOL, BYTES, DATE, DATETIME, FLOAT64, GEOGRAPHY, INT64, INTERVAL, JSON, NUMERIC, RANGE, STRING, STRUCT, TIME, TIMESTAMP,"

// genericTextType is the lossy-but-safe fallback for source types the
// destination cannot (or will not) represent natively.
const genericTextType = "STRING"

// MapColumnType maps a source field type name onto a destination column type.
// Unknown types degrade to the generic text type rather than aborting schema
// creation. DATETIME is deliberately excluded even though the destination has
// a native type of that name: the source's combined date+time values do not
// load into it cleanly, so they are kept as text.
func MapColumnType(sourceType string) string {
	t := strings.ToUpper(sourceType)
	if !strings.Contains(destinationTypes, t+",") || t == "DATETIME" {
		return genericTextType
	}
	return t
}

// BuildSchema derives the destination column set from a describe result.
func BuildSchema(fields []FieldDescriptor) ColumnSchema {
	schema := make(ColumnSchema, 0, len(fields))
	for _, f := range fields {
		schema = append(schema, Column{Name: f.Name, Type: MapColumnType(f.SourceType)})
	}
	return schema
}

// FieldNames returns the source field names in describe order, used to build
// the source query's select list.
func FieldNames(fields []FieldDescriptor) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names
}
