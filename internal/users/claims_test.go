package users

import (
	"errors"
	"testing"
)

func TestSplitName(t *testing.T) {
	cases := []struct {
		in, given, rest string
	}{
		{"Ada Lovelace", "Ada", "Lovelace"},
		{"Madonna", "Madonna", ""},
		{"Jean Claude Van Damme", "Jean", "Claude Van Damme"},
		{"  Grace   Hopper ", "Grace", "Hopper"},
		{"", "", ""},
	}
	for _, tc := range cases {
		given, rest := splitName(tc.in)
		if given != tc.given || rest != tc.rest {
			t.Fatalf("splitName(%q) = (%q, %q), want (%q, %q)", tc.in, given, rest, tc.given, tc.rest)
		}
	}
}

func TestNormalizeClaimsSplitsDisplayNameOnlyWithoutStructuredNames(t *testing.T) {
	c, err := NormalizeClaims(IdentityClaims{Subject: "auth0|1", Email: "ADA@Example.com", Name: "Ada Lovelace"})
	if err != nil {
		t.Fatalf("NormalizeClaims: %v", err)
	}
	if c.Email != "ada@example.com" {
		t.Fatalf("expected lowercased email, got %q", c.Email)
	}
	if deref(c.GivenName) != "Ada" || deref(c.FamilyName) != "Lovelace" {
		t.Fatalf("unexpected split %q %q", deref(c.GivenName), deref(c.FamilyName))
	}

	given := "Augusta"
	c, err = NormalizeClaims(IdentityClaims{Subject: "auth0|1", Email: "ada@example.com", Name: "Ada Lovelace", GivenName: &given})
	if err != nil {
		t.Fatalf("NormalizeClaims: %v", err)
	}
	if deref(c.GivenName) != "Augusta" || c.FamilyName != nil {
		t.Fatalf("structured claims must win over display name, got %q %v", deref(c.GivenName), c.FamilyName)
	}

	c, _ = NormalizeClaims(IdentityClaims{Subject: "auth0|2", Email: "m@example.com", Name: "Madonna"})
	if deref(c.GivenName) != "Madonna" || c.FamilyName != nil {
		t.Fatalf("single-token name should only set given name")
	}
}

func TestNormalizeClaimsRejectsMissingOrMalformed(t *testing.T) {
	cases := map[string]IdentityClaims{
		"empty sub":      {Email: "a@example.com"},
		"spaced sub":     {Subject: "auth0 1", Email: "a@example.com"},
		"empty email":    {Subject: "auth0|1"},
		"malformed mail": {Subject: "auth0|1", Email: "not-an-email"},
	}
	for name, in := range cases {
		_, err := NormalizeClaims(in)
		var invalid *InvalidClaimsError
		if !errors.As(err, &invalid) {
			t.Fatalf("%s: expected InvalidClaimsError, got %v", name, err)
		}
	}
}

func TestClaimsFromMapAcceptsLegacyNameKeys(t *testing.T) {
	c := ClaimsFromMap(map[string]any{
		"auth0_id":       "auth0|legacy",
		"email":          "legacy@example.com",
		"first_name":     "Grace",
		"last_name":      "Hopper",
		"email_verified": true,
		"picture":        "   ",
	})
	if c.Subject != "auth0|legacy" || deref(c.GivenName) != "Grace" || deref(c.FamilyName) != "Hopper" {
		t.Fatalf("unexpected claims %+v", c)
	}
	if c.EmailVerified == nil || !*c.EmailVerified {
		t.Fatalf("expected email_verified=true")
	}
	if c.Picture != nil {
		t.Fatalf("blank picture must be treated as absent")
	}
}
