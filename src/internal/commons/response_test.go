package commons

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagedResponseNilSliceEncodesEmpty(t *testing.T) {
	resp := PagedResponse[string]("ok", nil, 50, 0)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"ok","data":[],"page":{"limit":50,"offset":0,"count":0}}`, string(raw))
}

func TestErrorResponseOmitsData(t *testing.T) {
	resp := ErrorResponse[int]("Validation failed", "amount is required")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Validation failed","errors":["amount is required"]}`, string(raw))
}
