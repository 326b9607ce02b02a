package app

import (
	"context"
	"strings"

	"github.com/eliasJakobi123/sellable-sub001/auth"
)

// ensureProfile creates the profile row for a verified user if it does not
// already exist.
func (s *Server) ensureProfile(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.Subject == "" {
		return nil
	}
	fullName := strings.TrimSpace(claims.Name)
	return s.store.EnsureProfile(ctx, claims.Subject, fullName, displayName(fullName, claims.Email))
}

// displayName is the first word of the full name, or the local part of the
// email when no name is known.
func displayName(fullName, email string) string {
	if fields := strings.Fields(fullName); len(fields) > 0 {
		return fields[0]
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return ""
}

func claimsCustomer(claims *auth.Claims) (userID, email, name string) {
	return claims.Subject, strings.TrimSpace(claims.Email), strings.TrimSpace(claims.Name)
}
