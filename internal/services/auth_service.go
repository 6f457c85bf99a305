package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/authorizerdev/authorizer-go"
	"github.com/lexportal/collabsync/internal/config"
	"github.com/lexportal/collabsync/internal/types"
	"github.com/lexportal/collabsync/internal/utils"
)

var (
	authClient *authorizer.AuthorizerClient
	authOnce   sync.Once
)

// IsAuthorizerInitialized returns true if the Authorizer client is initialized
func IsAuthorizerInitialized() bool {
	return authClient != nil
}

// InitAuthorizer initializes the Authorizer client (singleton pattern)
func InitAuthorizer(cfg *config.Config, requestProtocol, requestHost string) error {
	var initErr error

	authOnce.Do(func() {
		// Ping the Authorizer service first
		if err := utils.PingAuthorizer(cfg.AuthzURL); err != nil {
			initErr = fmt.Errorf("authorizer ping failed: %w", err)
			return
		}

		redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
		log.Printf("Initializing Authorizer: authorizerURL=%s, clientID=%s, redirectURL=%s",
			cfg.AuthzURL, cfg.AuthzClientID, redirectURL)

		var err error
		authClient, err = authorizer.NewAuthorizerClient(cfg.AuthzClientID, cfg.AuthzURL, redirectURL, nil)
		if err != nil {
			initErr = fmt.Errorf("failed to create authorizer client: %w", err)
			return
		}
	})

	return initErr
}

// ValidateSession validates a session cookie for the given roles and returns
// the verified user identity.
func ValidateSession(cookie string, roles []string) (*types.AuthUser, error) {
	if authClient == nil {
		return nil, fmt.Errorf("authorizer client not initialized")
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := authClient.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}

	if res == nil || !res.IsValid {
		return nil, fmt.Errorf("session is not valid")
	}

	return toAuthUser(res.User)
}

// toAuthUser maps the identity provider's user record to the fields this
// service needs. The JSON round-trip keeps us independent of the SDK's
// struct shape across versions.
func toAuthUser(v interface{}) (*types.AuthUser, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user claims: %w", err)
	}

	var claims struct {
		ID                string  `json:"id"`
		Email             string  `json:"email"`
		Nickname          *string `json:"nickname"`
		PreferredUsername *string `json:"preferred_username"`
		GivenName         *string `json:"given_name"`
		Picture           *string `json:"picture"`
	}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode user claims: %w", err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("user claims missing id")
	}

	user := &types.AuthUser{
		ID:          claims.ID,
		Email:       claims.Email,
		DisplayName: claims.Email,
	}
	switch {
	case claims.Nickname != nil && *claims.Nickname != "":
		user.DisplayName = *claims.Nickname
	case claims.PreferredUsername != nil && *claims.PreferredUsername != "":
		user.DisplayName = *claims.PreferredUsername
	case claims.GivenName != nil && *claims.GivenName != "":
		user.DisplayName = *claims.GivenName
	}
	if claims.Picture != nil {
		user.AvatarURL = *claims.Picture
	}

	return user, nil
}
