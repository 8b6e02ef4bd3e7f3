package model

// RoleAdmin is the role value that grants administrator capability.
const RoleAdmin = "admin"

type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"nom"`
	Surname string `json:"prenom"`
	Email   string `json:"email"`
	Phone   string `json:"telephone,omitempty"`
	Role    string `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session is the token/profile pair returned by login and registration.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
