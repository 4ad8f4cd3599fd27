package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeFileName(t *testing.T) {
	assert.Equal(t, "42_verified.json", NewVerifiedOutcome(42, "+1555", "s", 5).FileName())
	assert.Equal(t, "42_rejected.json", NewRejectedOutcome(42, "+1555", "r").FileName())
	assert.Equal(t, "42_session.json", NewCompletedOutcome(42, "+1555", "s").FileName())
}

func TestOutcomeCaption(t *testing.T) {
	assert.Equal(t, "PENDING | +15551234567", NewPendingOutcome(42, "+15551234567").Caption())
	assert.Equal(t, "FAILED | +15551234567", NewFailedOutcome(42, "+15551234567", "x").Caption())
}

func TestOutcomeJSONHidesInternals(t *testing.T) {
	o := NewVerifiedOutcome(42, "+1555", "1BVtsOH", 5)
	o.ID = 7
	o.SessionName = "sessions/42_ab"

	b, err := json.Marshal(o)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.NotContains(t, m, "ID")
	assert.NotContains(t, m, "SessionName")
	assert.Equal(t, "1BVtsOH", m["string_session"])
	assert.Equal(t, true, m["2fa_enabled"])
	assert.Equal(t, true, m["admin_set_2fa"])
}

func TestRejectedOutcomeCarriesUserMessage(t *testing.T) {
	o := NewRejectedOutcome(42, "+1555", "multiple active sessions: 3")
	assert.Equal(t, "multiple active sessions: 3", o.Reason)
	assert.Contains(t, o.Message, "disable the account password")
}
