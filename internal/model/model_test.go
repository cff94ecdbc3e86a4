package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleUser))
	assert.True(t, ValidRole(RoleCompany))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole("Company"))
}

func TestAssetAssignedToUser(t *testing.T) {
	uid := uint64(7)
	assert.True(t, Asset{AssignedTo: &uid}.AssignedToUser(7))
	assert.False(t, Asset{AssignedTo: &uid}.AssignedToUser(8))
	assert.False(t, Asset{}.AssignedToUser(7))
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Email: "a@x.com", PasswordHash: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "password")
}

func TestAssetJSONNulls(t *testing.T) {
	b, err := json.Marshal(Asset{ID: 3, AssetName: "Laptop"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	for _, k := range []string{"purchase_date", "warranty_expiry", "status", "user_id"} {
		v, ok := got[k]
		assert.True(t, ok, k)
		assert.Nil(t, v, k)
	}
}
