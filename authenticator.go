package auth

import (
	"context"
)

// Auther combines credential login with token issuance
type Auther struct {
	service *AuthenticationService
	tokens  *TokenService
	logger  Logger
	claims  func(*User) map[string]any
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(service *AuthenticationService, tokens *TokenService) *Auther {
	return &Auther{
		service: service,
		tokens:  tokens,
		logger:  defLogger(),
	}
}

// WithLogger sets the logger
func (a *Auther) WithLogger(l Logger) *Auther {
	a.logger = resolveLogger(l)
	return a
}

// WithExtraClaims sets a function that provides extension claims for new tokens
func (a *Auther) WithExtraClaims(fn func(*User) map[string]any) *Auther {
	a.claims = fn
	return a
}

// TokenService returns the TokenService instance used by this Auther
func (a *Auther) TokenService() *TokenService {
	return a.tokens
}

// Service returns the AuthenticationService used by this Auther
func (a *Auther) Service() *AuthenticationService {
	return a.service
}

// Login verifies the credentials and issues a token for the user
func (a *Auther) Login(ctx context.Context, input LoginRequest) (*LoginResponse, *User, error) {
	user, err := a.service.Login(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	var extra map[string]any
	if a.claims != nil {
		extra = a.claims(user)
	}

	token, err := a.tokens.Issue(user, extra)
	if err != nil {
		a.logger.Error("failed to issue token", "error", err)
		return nil, nil, err
	}

	return &LoginResponse{
		Token:     token,
		ExpiresIn: a.tokens.ExpiresInMillis(),
	}, user, nil
}
