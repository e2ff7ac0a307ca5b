package domain

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = ""
)

// Identity is the caller of an operation. The zero value is an anonymous caller.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

func (i Identity) Authenticated() bool { return i.UserID != "" }

// RequireAdmin rejects anonymous callers with ErrUnauthenticated and
// non-admin callers with ErrForbidden.
func RequireAdmin(i Identity) error {
	if !i.Authenticated() {
		return ErrUnauthenticated
	}
	if i.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
