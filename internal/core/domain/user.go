package domain

// User is the signed-in identity, decoded from the ID token claims.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}
