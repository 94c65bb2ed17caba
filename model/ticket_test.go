package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketRefRoundtrip(t *testing.T) {
	ref := TicketRef("0x4e2f1c9a7b", 42)
	assert.Equal(t, "0x4e2f1c9a7b-42", ref)

	contract, tokenID, err := ParseTicketRef(ref)
	require.NoError(t, err)
	assert.Equal(t, "0x4e2f1c9a7b", contract)
	assert.EqualValues(t, 42, tokenID)
}

func TestParseTicketRefDashedContract(t *testing.T) {
	// Splits on the last dash only.
	contract, tokenID, err := ParseTicketRef("asa-main-net-7")
	require.NoError(t, err)
	assert.Equal(t, "asa-main-net", contract)
	assert.EqualValues(t, 7, tokenID)
}

func TestParseTicketRefMalformed(t *testing.T) {
	for _, ref := range []string{"", "noseparator", "-7", "abc-", "abc-x", "abc--"} {
		_, _, err := ParseTicketRef(ref)
		assert.Error(t, err, "ref %q", ref)
	}
}
