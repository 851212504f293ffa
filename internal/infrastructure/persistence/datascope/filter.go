// Package datascope translates resolved tenant scopes into GORM query
// constraints.
//
// A scope filter resolved by the identity package carries at most two
// dimensions, pharmacy and branch. This package turns those dimensions into
// WHERE clauses so repositories never hand-build tenancy predicates:
//
//	scopedDB := datascope.Apply(db, scope)
//	scopedDB.Find(&transactions) // WHERE pharmacy_id = ? AND branch_id = ?
//
// A match-none filter (unknown role, fail closed) compiles to a clause that
// can never be satisfied.
package datascope

import (
	"gorm.io/gorm"

	"github.com/pharmaops/backend/internal/domain/identity"
)

// Apply constrains db to rows visible under scope. An unrestricted scope
// passes through untouched; a match-none scope yields an empty result set.
func Apply(db *gorm.DB, scope identity.ScopeFilter) *gorm.DB {
	if scope.MatchesNothing() {
		return db.Where("1 = 0")
	}
	if scope.PharmacyID != nil {
		db = db.Where("pharmacy_id = ?", *scope.PharmacyID)
	}
	if scope.BranchID != nil {
		db = db.Where("branch_id = ?", *scope.BranchID)
	}
	return db
}

// Scope wraps Apply as a GORM scope function for use with db.Scopes
func Scope(scope identity.ScopeFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return Apply(db, scope)
	}
}
