package token

import (
	authmw "vetcore/pkg/platform/middleware/auth"
)

// JWTServiceAdapter converts token claims into the shape the auth
// middleware consumes.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	orgID, err := claims.Org()
	if err != nil {
		return nil, err
	}

	return &authmw.JWTClaims{
		OrgID:   orgID,
		Subject: claims.Subject,
	}, nil
}
