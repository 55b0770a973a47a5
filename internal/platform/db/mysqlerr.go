package db

import (
	"errors"

	mysql "github.com/go-sql-driver/mysql"
)

// MySQL error numbers we care about.
const (
	errDuplicateKey  = 1062
	errRowIsReferred = 1451
	errBadForeignKey = 1452
)

func isMySQLErr(err error, number uint16) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == number
	}
	return false
}

// IsDuplicateKey reports a unique index violation (1062).
func IsDuplicateKey(err error) bool { return isMySQLErr(err, errDuplicateKey) }

// IsRowReferenced reports a delete blocked by a child row (1451).
func IsRowReferenced(err error) bool { return isMySQLErr(err, errRowIsReferred) }

// IsBadForeignKey reports an insert/update with a missing parent row (1452).
func IsBadForeignKey(err error) bool { return isMySQLErr(err, errBadForeignKey) }
