package admin

import (
	"encoding/json"
	"strings"
)

// StaffResource is the academy member list endpoint.
const StaffResource = "/v1/auth/academy/member"

// Role is a staff member's academy role. The backend sends either the role
// slug or an object with slug and name.
type Role struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts "slug" and {"slug": ..., "name": ...}.
func (r *Role) UnmarshalJSON(data []byte) error {
	var slug string
	if err := json.Unmarshal(data, &slug); err == nil {
		*r = Role{Slug: slug}
		return nil
	}

	type plain Role
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Role(p)
	return nil
}

// String returns the name, falling back to the slug.
func (r Role) String() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Slug
}

// Staff is one academy staff member.
type Staff struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Status    string `json:"status"`
}

// FullName joins first and last name.
func (s Staff) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// StaffColumns are the columns of the staff table.
var StaffColumns = []Column[Staff]{
	{Name: "first_name", Label: "Name", Sortable: true, Width: 28, Value: Staff.FullName},
	{Name: "email", Label: "Email", Sortable: true, Width: 32, Value: func(s Staff) string { return s.Email }},
	{Name: "role", Label: "Role", Sortable: true, Width: 18, Value: func(s Staff) string { return s.Role.String() }},
	{Name: "status", Label: "Status", Sortable: true, Width: 10, Value: func(s Staff) string { return strings.ToUpper(s.Status) }},
}

// StaffMembers describes the staff table.
var StaffMembers = Resource[Staff]{
	Name:    "staff",
	Title:   "Staff",
	Path:    StaffResource,
	Columns: StaffColumns,
	ID:      func(s Staff) int { return s.ID },
}
