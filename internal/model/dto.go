package model

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name                 string `json:"nom" validate:"required,min=2"`
	Surname              string `json:"prenom" validate:"required,min=2"`
	Email                string `json:"email" validate:"required,email"`
	Phone                string `json:"telephone,omitempty" validate:"omitempty,sn_phone"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// AuthResponse is the payload of /auth/login and /auth/register.
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type ProfileResponse struct {
	User *User `json:"user"`
}

// ActionResponse is the generic confirmation returned by mutating calls.
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
