package escrow

import (
	domainerror "github.com/fairwaymarket/escrow-processor/internal/domain/error"
)

// Role identifies the party performing an escrow operation.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleSystem Role = "system"
)

// Actor is the authenticated principal attached to a request. ID carries the
// seller id for sellers and the buyer email for buyers. System actors come
// from internal jobs and bypass party checks.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by background jobs.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// authorize verifies that the actor holds the required role and is a party to
// the transaction. Every transition entry point funnels through here so the
// ownership check cannot drift between operations.
func authorize(actor Actor, required Role, transactionID, sellerID, buyerEmail string) error {
	if actor.Role == RoleSystem {
		return nil
	}

	if actor.Role != required {
		return domainerror.NewAuthorizationError(transactionID, actor.ID, string(required))
	}

	switch required {
	case RoleSeller:
		if actor.ID != sellerID {
			return domainerror.NewAuthorizationError(transactionID, actor.ID, string(required))
		}
	case RoleBuyer:
		if actor.ID != buyerEmail {
			return domainerror.NewAuthorizationError(transactionID, actor.ID, string(required))
		}
	}

	return nil
}
