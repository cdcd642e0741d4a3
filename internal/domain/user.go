package domain

// UsersKind is the collection name for users.
const UsersKind = "users"

// User is an external identity that has logged in at least once.
// The ID is the identity provider's subject and doubles as the store key.
type User struct {
	ID string `json:"id"`
}
