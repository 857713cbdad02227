package salesforce

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/ksuzuki/salesync/internal/domain/model"
)

// BuildQuery assembles the SOQL statement for one fetch window: every field
// from the describe result, non-deleted records only, modification timestamp
// bounded to the window at day granularity. A zero From leaves the lower
// bound off entirely (full-history fetch).
func BuildQuery(objectName string, fields []string, window model.FetchWindow) string {
	var b strings.Builder

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(objectName)
	b.WriteString(" WHERE IsDeleted=False")

	if window.From != (civil.Date{}) {
		fmt.Fprintf(&b, " AND LastModifiedDate>=%sT00:00:00Z", window.From)
	}
	if window.To != (civil.Date{}) {
		fmt.Fprintf(&b, " AND LastModifiedDate<=%sT23:59:59Z", window.To)
	}

	return b.String()
}
