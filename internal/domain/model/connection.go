package model

import "time"

// Connection is the per-account credential bundle issued by the source on
// OAuth authorization. The JSON tags match the source token response so the
// exchange payload round-trips through storage unchanged. The sync core only
// reads connections; creation and refresh happen at the service edge.
type Connection struct {
	// Identity is the source-issued account identifier embedded in the token
	// bundle. Runs verify it against the requested account to guard against
	// stale or foreign connection rows.
	Identity     string `json:"id"`
	InstanceURL  string `json:"instance_url"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	IssuedAt     string `json:"issued_at,omitempty"`

	UpdatedAt time.Time `json:"-"`
}
