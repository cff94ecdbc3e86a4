// Package repository holds the SQL for every entity. The sentinel errors
// below let handlers tell the expected failure scenarios apart from store
// failures, which are returned wrapped.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when the addressed row does not exist, or exists
// but is outside the caller's scope where the two must look the same.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update collides with the
// unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when an asset references a user id that does
// not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrServiceNotFound is returned when a request references a service id
// that is not in the catalog.
var ErrServiceNotFound = errors.New("service not found")

const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique-constraint violation from
// either supported driver.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
