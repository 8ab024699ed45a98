package model

// Role names carried in the identity provider's "role" claim.
const (
	RolePassenger = "PASSENGER"
	RoleOperator  = "OPERATOR"
	RoleAdmin     = "ADMIN"
)

// Party is the authenticated actor behind a request.  The core treats the
// ID as opaque.
type Party struct {
	ID   string
	Role string
}

// IsGuest reports whether no identity was supplied.
func (p Party) IsGuest() bool { return p.ID == "" }
