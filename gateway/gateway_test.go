package gateway_test

import (
	"context"
	"net"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/comprice/deviceagent/chatmodel"
	"github.com/comprice/deviceagent/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Classify(t *testing.T) {
	resp, err := gateway.Classify("The answer is 42.", nil)
	require.NoError(t, err)
	assert.False(t, resp.IsToolRequest())
	assert.Equal(t, "The answer is 42.", resp.Answer)

	call := chatmodel.ToolCall{ID: "call_1", Name: "DevicesSQLQuery", Arguments: `{"sql":"SELECT 1"}`}
	resp, err = gateway.Classify("", []chatmodel.ToolCall{call})
	require.NoError(t, err)
	require.True(t, resp.IsToolRequest())
	assert.Equal(t, "DevicesSQLQuery", resp.ToolCall.Name)

	// a reply carrying both text and a tool call is a tool request,
	// the tool request is never dropped
	resp, err = gateway.Classify("let me check", []chatmodel.ToolCall{call})
	require.NoError(t, err)
	assert.True(t, resp.IsToolRequest())

	_, err = gateway.Classify("", nil)
	assert.True(t, errors.Is(err, gateway.ErrMalformedResponse))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func Test_ClassifyTransportError(t *testing.T) {
	assert.NoError(t, gateway.ClassifyTransportError(nil))

	err := gateway.ClassifyTransportError(context.DeadlineExceeded)
	assert.True(t, errors.Is(err, gateway.ErrBackendTimeout))

	err = gateway.ClassifyTransportError(errors.Wrap(timeoutErr{}, "dial"))
	assert.True(t, errors.Is(err, gateway.ErrBackendTimeout))

	err = gateway.ClassifyTransportError(errors.New("connection refused"))
	assert.True(t, errors.Is(err, gateway.ErrBackendUnavailable))
	assert.Contains(t, err.Error(), "connection refused")
}
