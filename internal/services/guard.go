package services

import (
	"fmt"

	"fintrack/internal/core"
)

// AuthorizeCategory allows access only to the category's owner. Orphaned
// categories belong to nobody.
func AuthorizeCategory(identity core.UserID, c core.Category) error {
	if !c.OwnedBy(identity) {
		return fmt.Errorf("category %d: %w", c.ID, core.ErrForbidden)
	}
	return nil
}

// AuthorizeTransaction checks ownership through the transaction's category.
func AuthorizeTransaction(identity core.UserID, t core.Transaction) error {
	if err := AuthorizeCategory(identity, t.Category); err != nil {
		return fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	return nil
}

func requireIdentity(identity core.UserID) error {
	if identity <= 0 {
		return core.ErrUnauthenticated
	}
	return nil
}
