// Package identity removes user accounts from the identity provider when an
// Admin deletes a user.
//
// The production Admin talks to the Identity Toolkit REST API with an HTTP
// client authorised by a service account (golang.org/x/oauth2/google): the
// account is looked up by email and then deleted by its localId. Noop is used
// when no provider is configured.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultBaseURL is the Identity Toolkit v1 API root.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

var scopes = []string{
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Deprovisioner deletes the provider account behind an email. An account
// that does not exist counts as already deleted.
type Deprovisioner interface {
	DeleteUserByEmail(ctx context.Context, email string) error
}

var (
	_ Deprovisioner = (*Admin)(nil)
	_ Deprovisioner = Noop{}
)

// Admin is an Identity Toolkit client for one project.
type Admin struct {
	projectID string
	baseURL   string
	client    *http.Client
}

// NewAdmin builds an Admin from service-account JSON. projectID may be empty,
// in which case the credentials' project is used.
//
// oauth2.NewClient returns an *http.Client that fetches, caches and refreshes
// the access token and adds "Authorization: Bearer <token>" to every request.
func NewAdmin(ctx context.Context, projectID string, credentialsJSON []byte) (*Admin, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("identity: parsing credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, errors.New("identity: no project id in config or credentials")
	}
	return NewAdminWithClient(projectID, DefaultBaseURL, oauth2.NewClient(ctx, creds.TokenSource)), nil
}

// NewAdminWithClient uses an already authorised client, e.g. one built from
// oauth2.StaticTokenSource in tests.
func NewAdminWithClient(projectID, baseURL string, client *http.Client) *Admin {
	return &Admin{projectID: projectID, baseURL: baseURL, client: client}
}

type lookupResponse struct {
	Users []struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
	} `json:"users"`
}

// DeleteUserByEmail resolves the account's localId, then deletes it.
func (a *Admin) DeleteUserByEmail(ctx context.Context, email string) error {
	var found lookupResponse
	if err := a.call(ctx, "accounts:lookup", map[string]any{"email": []string{email}}, &found); err != nil {
		return fmt.Errorf("identity: looking up %s: %w", email, err)
	}
	if len(found.Users) == 0 {
		return nil
	}

	for _, u := range found.Users {
		if err := a.call(ctx, "accounts:delete", map[string]any{"localId": u.LocalID}, nil); err != nil {
			return fmt.Errorf("identity: deleting %s: %w", email, err)
		}
	}
	return nil
}

// call POSTs body to projects/<id>/<method> and decodes the reply into out.
func (a *Admin) call(ctx context.Context, method string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/%s", a.baseURL, a.projectID, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned status %d: %s", method, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

// Noop stands in for the provider in local mode.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) DeleteUserByEmail(_ context.Context, email string) error {
	if n.Logger != nil {
		n.Logger.Info("identity provider not configured, skipping account deletion", slog.String("email", email))
	}
	return nil
}
