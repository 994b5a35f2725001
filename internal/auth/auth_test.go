package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	keys, err := NewKeys("test-secret")
	if err != nil {
		t.Fatalf("NewKeys: %v", err)
	}

	token, err := keys.GenerateToken("u1", RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := keys.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "u1" || claims.Role != RoleAdmin {
		t.Fatalf("claims = %s/%s, want u1/admin", claims.Subject, claims.Role)
	}
	if !claims.IsAdmin() {
		t.Fatal("IsAdmin() = false for admin claims")
	}
	if !claims.Owns("u1") || claims.Owns("u2") {
		t.Fatal("ownership check wrong")
	}
}

func TestValidateRejectsForeignKey(t *testing.T) {
	keys, _ := NewKeys("test-secret")
	other, _ := NewKeys("different-secret")

	token, err := keys.GenerateToken("u1", RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("token signed with a different key validated")
	}
}

func TestNewKeysRequiresSecret(t *testing.T) {
	if _, err := NewKeys(""); err == nil {
		t.Fatal("empty secret accepted")
	}
}
