// Package sqlxrepos implements the domain repositories on PostgreSQL through sqlx.
// Every query touching owned rows filters on user_id.
package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const uniqueViolationCode = "23505"

func newID() string {
	return uuid.New().String()
}

// validID reports whether id can be compared to a UUID column.
// Anything else cannot match a row and would make postgres fail the whole statement.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func trapNoRowsErr(err, notFound error) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return err
}

// uniqueViolation returns the name of the violated unique constraint, if err is one.
func uniqueViolation(err error) (string, bool) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolationCode {
		return pqErr.Constraint, true
	}
	return "", false
}

// checkAffected turns an UPDATE or DELETE that matched nothing into notFound.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
