package bigquery

import (
	"net/http"
	"strings"
	"testing"

	bq "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

func TestToTableSchema(t *testing.T) {
	schema := model.ColumnSchema{
		{Name: "Id", Type: "STRING"},
		{Name: "Amount", Type: "NUMERIC"},
		{Name: "IsWon", Type: "BOOL"},
	}

	got := toTableSchema(schema)

	require.Len(t, got, 3)
	assert.Equal(t, "Id", got[0].Name)
	assert.Equal(t, bq.StringFieldType, got[0].Type)
	assert.Equal(t, bq.NumericFieldType, got[1].Type)
	// BOOL is the standard-SQL alias the mapper emits; the load API accepts
	// it as-is, so it is passed through rather than renamed to BOOLEAN.
	assert.Equal(t, bq.FieldType("BOOL"), got[2].Type)
}

func TestEncodeRows_NewlineDelimited(t *testing.T) {
	rows := []model.Row{
		{"Id": "001", "Name": "Acme"},
		{"Id": "002", "Name": "Globex"},
	}

	buf, err := encodeRows(rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"Id":"001","Name":"Acme"}`, lines[0])
	assert.JSONEq(t, `{"Id":"002","Name":"Globex"}`, lines[1])
}

func TestHasColumn(t *testing.T) {
	schema := model.ColumnSchema{
		{Name: "Id", Type: "STRING"},
		{Name: "OwnerId", Type: "STRING"},
	}

	assert.True(t, hasColumn(schema, "OwnerId"))
	assert.False(t, hasColumn(schema, "ownerid"), "column match is case-sensitive")
	assert.False(t, hasColumn(model.ColumnSchema{}, "OwnerId"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&googleapi.Error{Code: http.StatusNotFound}))
	assert.False(t, isNotFound(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isNotFound(assert.AnError))
}
