package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushCharPassesPlainData(t *testing.T) {
	state := &tnState{filter: tnStateNormal}
	out := state.pushChar('A', nil)
	out = state.pushChar('B', out)
	assert.Equal(t, []byte{'A', 'B'}, out)
	assert.Equal(t, tnStateNormal, state.filter)
}

func TestPushCharStripsWillOption(t *testing.T) {
	state := &tnState{filter: tnStateNormal}
	var out []byte
	out = state.pushChar(tnIAC, out)
	out = state.pushChar(tnWILL, out)
	out = state.pushChar(tnOptionEcho, out)
	out = state.pushChar('x', out)
	assert.Equal(t, []byte{'x'}, out)
	assert.Equal(t, tnStateNormal, state.filter)
}

func TestPushCharEscapedIACIsData(t *testing.T) {
	state := &tnState{filter: tnStateNormal}
	var out []byte
	out = state.pushChar(tnIAC, out)
	out = state.pushChar(tnIAC, out)
	assert.Equal(t, []byte{tnIAC}, out)
}

func TestPushCharSkipsSubnegotiationUntilSE(t *testing.T) {
	state := &tnState{filter: tnStateNormal}
	var out []byte
	out = state.pushChar(tnIAC, out)
	out = state.pushChar(tnSB, out)
	out = state.pushChar(0x18, out) // terminal type option
	out = state.pushChar('x', out)
	out = state.pushChar(tnIAC, out)
	out = state.pushChar(tnSE, out)
	out = state.pushChar('y', out)
	assert.Equal(t, []byte{'y'}, out)
	assert.Equal(t, tnStateNormal, state.filter)
}
