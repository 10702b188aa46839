package dbfactory

import (
	"regexp"
	"strings"
)

// QueryType is the routing class of a query.
type QueryType int

const (
	QueryTypeUnknown QueryType = iota
	QueryTypeRead
	QueryTypeWrite
)

// QueryTypeChecker is used to try to detect the query type, like for detecting RETURNING clauses in
// INSERT/UPDATE clauses. Queries detected as writes are sent to the write handle even when they
// are issued through QueryContext.
type QueryTypeChecker interface {
	Check(query string) QueryType
}

// DefaultQueryTypeChecker searches for a "RETURNING" string inside the query to detect a write query.
// SQL Server's OUTPUT clause is treated the same way.
type DefaultQueryTypeChecker struct {
}

// outputClause matches SQL Server's OUTPUT INSERTED./DELETED. anywhere in the
// statement, including at the start of a line.
var outputClause = regexp.MustCompile(`(?i)(^|\s)OUTPUT\s+(INSERTED|DELETED)\.`)

// Check reports QueryTypeWrite for statements returning rows from a write.
func (c DefaultQueryTypeChecker) Check(query string) QueryType {
	if strings.Contains(strings.ToUpper(query), "RETURNING") || outputClause.MatchString(query) {
		return QueryTypeWrite
	}
	return QueryTypeUnknown
}
