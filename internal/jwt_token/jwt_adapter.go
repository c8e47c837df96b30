package jwttoken

import (
	"errors"

	authmw "fraudintel/pkg/platform/middleware/auth"
)

var errSubjectMismatch = errors.New("token subject does not match account")

// JWTServiceAdapter lets the auth middleware validate tokens without
// importing the JWT library.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

// ValidateToken verifies the token and reduces it to the account id and
// token id. Tokens that carry a subject must name the same account as the
// account_id claim.
func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Subject != "" && claims.Subject != claims.AccountID {
		return nil, errSubjectMismatch
	}
	return &authmw.JWTClaims{AccountID: claims.AccountID, JTI: claims.ID}, nil
}
