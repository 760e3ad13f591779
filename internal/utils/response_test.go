package utils

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 409, "already voted")

	assert.Equal(t, 409, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"already voted"}`, rec.Body.String())
}

func TestDecodeStrict(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}

	require.NoError(t, DecodeStrict(strings.NewReader(`{"name":"Pizza"}`), &body))
	assert.Equal(t, "Pizza", body.Name)

	err := DecodeStrict(strings.NewReader(`{"name":"Pizza","stars":5}`), &body)
	assert.True(t, errors.Is(err, ErrUnexpectedFields))

	err = DecodeStrict(strings.NewReader(`{"name":`), &body)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnexpectedFields))

	err = DecodeStrict(strings.NewReader(`{"name":"a"} {"name":"b"}`), &body)
	assert.Error(t, err)
}
