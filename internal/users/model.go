package users

import "time"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"fullName"`
	PictureURL   string     `json:"pictureUrl"`
	PasswordHash string     `json:"-"`
	Provider     string     `json:"provider"`
	ConfirmedAt  *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u User) Confirmed() bool {
	return u.ConfirmedAt != nil
}
