package domain

// Actor is the authenticated caller as seen by services.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// IsStaff reports whether the actor holds a staff role.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// SystemActor is used for automated changes.
var SystemActor = Actor{ID: "system", Name: "System", Role: RoleAdmin}
