package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	password := "Secret1!"
	hashedPassword, err := HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hashedPassword)
	assert.NotEqual(t, password, hashedPassword)

	cost, err := bcrypt.Cost([]byte(hashedPassword))
	assert.NoError(t, err)
	assert.Equal(t, BcryptCost, cost)
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("Secret1!")
	assert.NoError(t, err)
	second, err := HashPassword("Secret1!")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, CheckPasswordHash("Secret1!", first))
	assert.True(t, CheckPasswordHash("Secret1!", second))
}

func TestCheckPasswordHash(t *testing.T) {
	password := "Secret1!"
	hashedPassword, _ := HashPassword(password)

	assert.True(t, CheckPasswordHash(password, hashedPassword))
	assert.False(t, CheckPasswordHash("Secret2!", hashedPassword))
}

func TestCheckPasswordHash_InvalidHash(t *testing.T) {
	assert.False(t, CheckPasswordHash("Secret1!", "invalidhash"))
	assert.False(t, CheckPasswordHash("Secret1!", ""))
}
