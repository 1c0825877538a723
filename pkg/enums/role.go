package enums

// Role is carried in access tokens.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

var roles = newSet("role", lower, RoleAdmin, RoleCustomer)

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return roles.has(r) }
