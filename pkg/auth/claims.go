package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/atacadobras/atacado-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	Role       enums.ActorRole
	SupplierID *uuid.UUID
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. Supplier
// accounts carry the supplier profile they act for; buyers and admins do not.
type AccessTokenClaims struct {
	UserID     uuid.UUID       `json:"user_id"`
	Role       enums.ActorRole `json:"role"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	jwt.RegisteredClaims
}
