package model

// Roles a user may hold. The role decides which capabilities a caller has.
const (
	RoleUser    = "user"
	RoleCompany = "company"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool { return r == RoleUser || r == RoleCompany }

// User represents a row of the `users` table. PasswordHash never leaves
// the process: it is excluded from JSON.
type User struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Contact      string `json:"contact"`
	CompanyName  string `json:"company_name"`
	Location     string `json:"location"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at,omitempty"`
}
