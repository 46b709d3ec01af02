package repository

import "github.com/jmoiron/sqlx"

// execFrom resolves the executor for a call: the caller's transaction when
// present, the pooled connection otherwise.
func execFrom(exec sqlx.ExtContext, db *sqlx.DB) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}
