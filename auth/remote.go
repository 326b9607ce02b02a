package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrProviderUnavailable is returned when the identity provider cannot be reached
// or answers with a server error.
var ErrProviderUnavailable = errors.New("identity provider unavailable")

// RemoteVerifier resolves a session by calling the identity provider's
// user endpoint with the caller's token and the project's public key.
type RemoteVerifier struct {
	baseURL   string
	publicKey string
	httpc     *http.Client
}

func NewRemoteVerifier(baseURL, publicKey string, httpc *http.Client) *RemoteVerifier {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteVerifier{
		baseURL:   strings.TrimRight(baseURL, "/"),
		publicKey: publicKey,
		httpc:     httpc,
	}
}

type remoteUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Aud          string         `json:"aud"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", v.publicKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	res, err := v.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, res.StatusCode)
	default:
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("%w: provider rejected session (status %d)", ErrInvalidToken, res.StatusCode)
	}

	var u remoteUser
	if err := json.NewDecoder(res.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrProviderUnavailable, err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("%w: user missing id", ErrInvalidToken)
	}

	claims := &Claims{
		Subject: u.ID,
		Email:   strings.TrimSpace(u.Email),
		Name:    readMetadataName(u.UserMetadata),
		Issuer:  v.baseURL + "/auth/v1",
		Raw:     map[string]any{"sub": u.ID, "email": u.Email, "user_metadata": u.UserMetadata},
	}
	if u.Aud != "" {
		claims.Audience = []string{u.Aud}
	}
	return claims, nil
}
