package types

// AuthUser is the verified identity the auth middleware extracts from the
// external identity provider session. Credentials are never handled here.
type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}
