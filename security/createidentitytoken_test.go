package security

import (
	"encoding/base64"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "IxrAjDoa2FqElO7IhrSrUJELhUckePEPVpaePlS/Xaw="

func TestCreateIdentityToken(t *testing.T) {
	identity := &AeroCrewIdentity{
		Id:       5,
		UserName: "sync-operator",
		Provider: "local",
		Email:    "operator@aerocrew.com",
	}

	tokenStr, err := CreateIdentityToken(identity, testSecret, 3600)
	assert.NoError(t, err)
	assert.NotEmpty(t, tokenStr)

	secretBytes, err := base64.StdEncoding.DecodeString(testSecret)
	assert.NoError(t, err)

	var claims IdentityClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return secretBytes, nil
	})
	assert.NoError(t, err)
	assert.True(t, token.Valid)

	assert.Equal(t, 5, claims.Identity.ID)
	assert.Equal(t, "sync-operator", claims.UniqueName)
	assert.Equal(t, "operator@aerocrew.com", claims.Email)
	assert.Equal(t, "aerocrew", claims.Issuer)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestCreateIdentityTokenBadSecret(t *testing.T) {
	_, err := CreateIdentityToken(&AeroCrewIdentity{Id: 1}, "not base64!!!", 60)
	assert.Error(t, err)
}
