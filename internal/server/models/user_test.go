package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublic_NeverCarriesPasswordHash(t *testing.T) {
	phone := "+16502530000"
	u := &User{
		ID:           3,
		Email:        "alice@example.com",
		FirstName:    "Alice",
		LastName:     "Liddell",
		PasswordHash: "$2a$10$secret",
		Phone:        &phone,
		IsActive:     true,
	}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)

	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
	assert.Contains(t, string(b), `"email":"alice@example.com"`)
	assert.Contains(t, string(b), `"isActive":true`)
}

func TestUserUpdate_Empty(t *testing.T) {
	assert.True(t, UserUpdate{}.Empty())

	name := "Bob"
	assert.False(t, UserUpdate{FirstName: &name}.Empty())

	active := false
	assert.False(t, UserUpdate{IsActive: &active}.Empty())
}
