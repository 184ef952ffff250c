package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegisterRequest(t *testing.T) {
	valid := RegisterRequest{
		Email:     "alice@example.com",
		Username:  "alice",
		Password:  "sturdy-pass1",
		Password2: "sturdy-pass1",
	}
	assert.Nil(t, Validate(valid))

	fields := Validate(RegisterRequest{Email: "not-an-email", Password: "x"})
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "username is required", fields["username"])
	assert.Equal(t, "password2 is required", fields["password2"])
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "role")
}

func TestValidateLoginRequest(t *testing.T) {
	fields := Validate(LoginRequest{})
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}
