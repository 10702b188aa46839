package dbfactory

import (
	"strings"

	"github.com/Masterminds/squirrel"
)

// Dialect abstracts the database specific syntax a Connection needs.
type Dialect interface {
	// Placeholder returns the bind parameter format.
	// MySQL and SQLite use ?, PostgreSQL uses $1, SQL Server uses @p1.
	Placeholder() squirrel.PlaceholderFormat

	// QuoteIdentifier quotes every dot separated segment of name.
	QuoteIdentifier(name string) string
}

// MySQLDialect quotes identifiers with backticks and binds with ?.
type MySQLDialect struct{}

func (MySQLDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (MySQLDialect) QuoteIdentifier(name string) string {
	return quoteSegments(name, "`", "`")
}

// PostgresDialect quotes identifiers with double quotes and binds with $1, $2.
type PostgresDialect struct{}

func (PostgresDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (PostgresDialect) QuoteIdentifier(name string) string {
	return quoteSegments(name, `"`, `"`)
}

// SQLiteDialect quotes identifiers with double quotes and binds with ?.
type SQLiteDialect struct{}

func (SQLiteDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }

func (SQLiteDialect) QuoteIdentifier(name string) string {
	return quoteSegments(name, `"`, `"`)
}

// SQLServerDialect quotes identifiers with brackets and binds with @p1, @p2.
type SQLServerDialect struct{}

func (SQLServerDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.AtP }

func (SQLServerDialect) QuoteIdentifier(name string) string {
	return quoteSegments(name, "[", "]")
}

// quoteSegments quotes each segment of a dotted name, doubling any closing
// quote found inside a segment. "*" is left alone.
func quoteSegments(name, left, right string) string {
	segments := strings.Split(name, ".")
	for i, s := range segments {
		if s == "*" {
			continue
		}
		segments[i] = left + strings.ReplaceAll(s, right, right+right) + right
	}
	return strings.Join(segments, ".")
}
