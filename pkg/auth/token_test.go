package auth

import (
	"testing"
	"time"

	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/enums"
)

func TestMintAndParseIdentityToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "cleanmatch"}
	now := time.Now().UTC()

	token, err := MintIdentityToken(cfg, now, time.Hour, IdentityPayload{
		UserID: "firebase-uid-1",
		Role:   enums.RoleShopOwner,
		Email:  "owner@example.com",
	})
	if err != nil {
		t.Fatalf("mint identity token: %v", err)
	}

	claims, err := ParseIdentityToken(cfg, token)
	if err != nil {
		t.Fatalf("parse identity token: %v", err)
	}
	if claims.UserID() != "firebase-uid-1" {
		t.Fatalf("unexpected subject %q", claims.UserID())
	}
	if claims.Role != enums.RoleShopOwner {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatalf("expected jti to be set")
	}
}

func TestParseIdentityTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "cleanmatch"}
	token, err := MintIdentityToken(cfg, time.Now(), time.Hour, IdentityPayload{UserID: "u1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := ParseIdentityToken(config.JWTConfig{Secret: "other", Issuer: "cleanmatch"}, token); err == nil {
		t.Fatalf("expected signature failure")
	}
	if _, err := ParseIdentityToken(config.JWTConfig{Secret: "secret", Issuer: "someone-else"}, token); err == nil {
		t.Fatalf("expected issuer failure")
	}
}

func TestParseIdentityTokenRejectsExpired(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "cleanmatch"}
	token, err := MintIdentityToken(cfg, time.Now().Add(-2*time.Hour), time.Hour, IdentityPayload{UserID: "u1"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseIdentityToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestMintIdentityTokenValidatesInput(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret"}
	if _, err := MintIdentityToken(cfg, time.Now(), time.Hour, IdentityPayload{}); err == nil {
		t.Fatalf("expected missing user id error")
	}
	if _, err := MintIdentityToken(cfg, time.Now(), time.Hour, IdentityPayload{UserID: "u", Role: "ADMIN"}); err == nil {
		t.Fatalf("expected invalid role error")
	}
	if _, err := MintIdentityToken(config.JWTConfig{}, time.Now(), time.Hour, IdentityPayload{UserID: "u"}); err == nil {
		t.Fatalf("expected missing secret error")
	}
}
