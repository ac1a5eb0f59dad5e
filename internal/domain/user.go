package domain

// User is the identity returned by the auth endpoints. Gamification fields
// live on Progress.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName returns the username, falling back to the email address
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
