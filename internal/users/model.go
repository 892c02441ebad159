package users

import "time"

type User struct {
	ID         string    `json:"id"`
	AuthID     string    `json:"-"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	PictureURL string    `json:"pictureUrl"`
	Credits    int       `json:"credits"`
	Industry   string    `json:"industry,omitempty"`
	Experience *int      `json:"experience,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Skills     []string  `json:"skills"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Onboarded reports whether the user has picked an industry.
func (u User) Onboarded() bool {
	return u.Industry != ""
}

// Identity is the caller identity carried by a verified session token.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Profile holds the editable career fields.
type Profile struct {
	Industry   string   `json:"industry"`
	Experience *int     `json:"experience"`
	Bio        string   `json:"bio"`
	Skills     []string `json:"skills"`
}
