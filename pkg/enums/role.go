package enums

// Role names the directory roles the station cares about.
type Role string

const (
	RolePicker      Role = "picker"
	RoleCoordinator Role = "coordinator"
)

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
