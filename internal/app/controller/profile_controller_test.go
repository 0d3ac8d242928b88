package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/savanna-table/savanna-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressIDs(resp map[string]interface{}) []uint {
	var ids []uint
	for _, a := range resp["addresses"].([]interface{}) {
		ids = append(ids, uint(a.(map[string]interface{})["id"].(float64)))
	}
	return ids
}

func defaultID(resp map[string]interface{}) interface{} {
	return resp["effective_default_id"]
}

func TestProfileController_Profile(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, "amara@example.com")

	w := env.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "amara@example.com", user["email"])
	assert.Empty(t, user["addresses"])
	assert.Nil(t, user["effective_default_id"])

	w = env.do(t, http.MethodPut, "/api/user/profile", token, UpdateProfileRequest{FirstName: " Ama ", LastName: "Okafor", Phone: "555-0199"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user = decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Ama", user["first_name"])
	assert.Equal(t, "555-0199", user["phone"])

	w = env.do(t, http.MethodPut, "/api/user/profile", token, UpdateProfileRequest{LastName: "Okafor"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileController_AddressLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.registerUser(t, "amara@example.com")

	home := AddressRequest{Street: "12 Baobab Way", City: "Austin", State: "TX", ZipCode: "73301"}
	work := AddressRequest{Street: "400 Congress Ave", City: "Austin", State: "TX", ZipCode: "73301"}

	// first address becomes the default even when not flagged
	w := env.do(t, http.MethodPost, "/api/user/addresses", token, home)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	require.Len(t, addressIDs(resp), 1)
	homeID := addressIDs(resp)[0]
	assert.EqualValues(t, homeID, defaultID(resp))

	work.IsDefault = true
	w = env.do(t, http.MethodPost, "/api/user/addresses", token, work)
	require.Equal(t, http.StatusCreated, w.Code)
	resp = decode(t, w)
	ids := addressIDs(resp)
	require.Len(t, ids, 2)
	workID := ids[1]
	assert.EqualValues(t, workID, defaultID(resp))

	flags := 0
	for _, a := range resp["addresses"].([]interface{}) {
		if a.(map[string]interface{})["is_default"] == true {
			flags++
		}
	}
	assert.Equal(t, 1, flags)

	isDefault := true
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/user/addresses/%d", homeID), token, UpdateAddressRequest{IsDefault: &isDefault})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, homeID, defaultID(decode(t, w)))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/user/addresses/%d", homeID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	assert.Equal(t, []uint{workID}, addressIDs(resp))
	assert.EqualValues(t, workID, defaultID(resp))

	w = env.do(t, http.MethodGet, "/api/user/addresses", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{workID}, addressIDs(decode(t, w)))
}

func TestProfileController_AddressOwnership(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.registerUser(t, "amara@example.com")
	_, otherToken := env.registerUser(t, "kofi@example.com")

	w := env.do(t, http.MethodPost, "/api/user/addresses", ownerToken, AddressRequest{Street: "12 Baobab Way", City: "Austin", State: "TX", ZipCode: "73301"})
	require.Equal(t, http.StatusCreated, w.Code)
	id := addressIDs(decode(t, w))[0]

	city := "Dallas"
	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/user/addresses/%d", id), otherToken, UpdateAddressRequest{City: &city})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.AddressNotFound, errorCode(t, w))

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/user/addresses/%d", id), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/user/addresses", ownerToken, AddressRequest{Street: "No city"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
