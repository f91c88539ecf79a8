package db

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

func IsUniqueViolation(err error) bool {
	return matches(err, pqUniqueViolation, "UNIQUE constraint failed")
}

func IsCheckViolation(err error) bool {
	return matches(err, pqCheckViolation, "CHECK constraint failed")
}

func IsForeignKeyViolation(err error) bool {
	return matches(err, pqForeignKeyViolation, "FOREIGN KEY constraint failed")
}

// matches checks a lib/pq error code, falling back to the SQLite message
// text since the embedded driver exposes no typed constraint codes.
func matches(err error, pqCode pq.ErrorCode, sqliteText string) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqCode
	}
	return strings.Contains(err.Error(), sqliteText)
}
