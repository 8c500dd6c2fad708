package v1

import (
	"context"
	"encoding/json"
	"fmt"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// Authenticate exchanges operator credentials for an API token and
// installs it on the transport. Deployed environments carry a long-lived
// token in parameter store; this is the bootstrap path when none is
// configured.
func (c *BioTimeClient) Authenticate(ctx context.Context, username, password string) error {
	resp, err := c.Transport.Post(ctx, "/api-token-auth/", authRequest{
		Username: username,
		Password: password,
	}, nil)
	if err != nil {
		return err
	}

	var result authResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	if result.Token == "" {
		return fmt.Errorf("auth response contained no token")
	}

	c.Transport.AuthToken = result.Token
	return nil
}
