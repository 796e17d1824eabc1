package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "json", c.Name())

	data, err := c.Marshal(&RepeatRequest{Mode: "track"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"track"}`, string(data))

	var req RepeatRequest
	require.NoError(t, c.Unmarshal([]byte(`{"mode":"off"}`), &req))
	assert.Equal(t, "off", req.Mode)

	// An empty body leaves the message untouched
	require.NoError(t, c.Unmarshal(nil, &req))
	assert.Equal(t, "off", req.Mode)
}
