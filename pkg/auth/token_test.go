package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/atacadobras/atacado-backend/pkg/config"
	"github.com/atacadobras/atacado-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "atacadobras",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	supplierID := uuid.New()

	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID:     userID,
		Role:       enums.ActorRoleSupplier,
		SupplierID: &supplierID,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(cfg, signed)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Role != enums.ActorRoleSupplier {
		t.Fatalf("expected role %s, got %s", enums.ActorRoleSupplier, claims.Role)
	}
	if claims.SupplierID == nil || *claims.SupplierID != supplierID {
		t.Fatalf("expected supplier id to round trip")
	}
	if claims.ID == "" {
		t.Fatalf("expected a generated jti")
	}
}

func TestMintRejectsSupplierWithoutProfile(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleSupplier,
	})
	if err == nil {
		t.Fatalf("expected supplier token without supplier id to be rejected")
	}
}

func TestMintRejectsUnknownRole(t *testing.T) {
	_, err := MintAccessToken(testJWTConfig(), time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRole("gerente"),
	})
	if err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleBuyer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	if _, err := ParseAccessToken(cfg, signed); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := testJWTConfig()
	signed, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.ActorRoleBuyer,
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}
	other := cfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, signed); err == nil {
		t.Fatalf("expected issuer mismatch to be rejected")
	}
}
