package models

const (
	RoleClient = "client"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// Actor is the authenticated caller as resolved from the bearer token.
// ClientID and PersonnelID are zero when the user has no such profile.
type Actor struct {
	UserID      int64  `json:"user_id"`
	Role        string `json:"role"`
	ClientID    int64  `json:"client_id,omitempty"`
	PersonnelID int64  `json:"personnel_id,omitempty"`
}

func (a *Actor) IsClient() bool { return a.Role == RoleClient }
func (a *Actor) IsDriver() bool { return a.Role == RoleDriver }
func (a *Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
