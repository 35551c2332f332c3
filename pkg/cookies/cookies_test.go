package cookies

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreate(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour)
	c := Create(AccessName, "tok", exp, Options{Secure: false})

	assert.Equal(t, "accessToken", c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, exp, c.Expires)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	c := Delete(RefreshName, DefaultOptions())
	assert.Equal(t, "refreshToken", c.Name)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.True(t, c.Secure)
}
