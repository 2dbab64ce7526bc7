package directory

// User is a single directory record.
// Identity is carried by ID alone: two users with the same ID describe the
// same entity even when the remaining fields differ.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
}

// Equal reports whether u and other identify the same record.
// Comparison is by ID only, not structural.
func (u User) Equal(other User) bool {
	return u.ID == other.ID
}

// Predicate selects users during search operations.
type Predicate func(User) bool

// ByID matches the user with the given id.
func ByID(id int64) Predicate {
	return func(u User) bool { return u.ID == id }
}

// ByAge matches users with the given age.
func ByAge(age int) Predicate {
	return func(u User) bool { return u.Age == age }
}

// ByLastName matches users with the given last name.
func ByLastName(name string) Predicate {
	return func(u User) bool { return u.LastName == name }
}
