package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	r, err = ParseRole("USER")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRole("OWNER")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.False(t, Role("").Valid())
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Email: "a@x.com", PasswordHash: "secret-hash", Role: RoleUser})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret-hash")
	assert.Contains(t, string(b), `"role":"USER"`)
}

func TestNewPage_TotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
		{26, 5, 6},
	}
	for _, tc := range cases {
		p := NewPage[int](nil, tc.total, 1, tc.limit)
		assert.Equal(t, tc.want, p.TotalPages, "total=%d limit=%d", tc.total, tc.limit)
		assert.NotNil(t, p.Data)
	}
}
