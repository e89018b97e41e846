package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	c, err := ParseCommand("data 10 3")
	require.NoError(t, err)
	assert.Equal(t, "data", c.Verb)
	assert.Equal(t, []string{"10", "3"}, c.Args)
}

func TestParseCommandEmpty(t *testing.T) {
	_, err := ParseCommand("   ")
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestParseIntArgs(t *testing.T) {
	c, _ := ParseCommand("data 10 3")
	got, err := c.ParseIntArgs(2)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 3}, got)
}

func TestParseIntArgsTooFew(t *testing.T) {
	c, _ := ParseCommand("data 10")
	_, err := c.ParseIntArgs(2)
	require.Error(t, err)
}

func TestParseOptionArgs(t *testing.T) {
	c, _ := ParseCommand("linreg intercept=false")
	opts, err := c.ParseOptionArgs()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"intercept": "false"}, opts)
}

func TestParseOptionArgsMalformed(t *testing.T) {
	c, _ := ParseCommand("linreg intercept")
	_, err := c.ParseOptionArgs()
	require.Error(t, err)
}

func TestEncodeCalculateResponse(t *testing.T) {
	data := map[string]GroupResult{
		"": {
			ParameterNames: []string{"mean_0"},
			FinalEstimates: []float64{3},
		},
	}
	got, err := EncodeCalculateResponse(data)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestErrorLine(t *testing.T) {
	assert.Equal(t, "error: boom", ErrorLine(NewProtocolError("boom")))
}
