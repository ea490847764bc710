package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityEntryUnmarshalCanonical(t *testing.T) {
	var e QuantityEntry
	err := json.Unmarshal([]byte(`{"date":"2025-03-01T10:00:00Z","from":5,"to":3}`), &e)
	require.NoError(t, err)

	assert.Equal(t, 5, e.From)
	assert.Equal(t, 3, e.To)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), e.Date)
}

func TestQuantityEntryUnmarshalLegacyPrevNew(t *testing.T) {
	var e QuantityEntry
	err := json.Unmarshal([]byte(`{"date":"2021-07-15T08:30:00Z","prev":10,"new":7}`), &e)
	require.NoError(t, err)

	assert.Equal(t, 10, e.From)
	assert.Equal(t, 7, e.To)
}

func TestQuantityEntryCanonicalKeysWin(t *testing.T) {
	// Rows rewritten mid-migration can carry both key pairs.
	var e QuantityEntry
	err := json.Unmarshal([]byte(`{"date":"2021-07-15T08:30:00Z","from":2,"to":1,"prev":10,"new":7}`), &e)
	require.NoError(t, err)

	assert.Equal(t, 2, e.From)
	assert.Equal(t, 1, e.To)
}

func TestQuantityEntryMarshalIsAlwaysCanonical(t *testing.T) {
	e := QuantityEntry{Date: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), From: 5, To: 3}
	data, err := json.Marshal(e)
	require.NoError(t, err)

	assert.JSONEq(t, `{"date":"2025-03-01T10:00:00Z","from":5,"to":3}`, string(data))
}

func TestPartTypeValid(t *testing.T) {
	assert.True(t, PartTypeComponent.Valid())
	assert.True(t, PartTypeConsumable.Valid())
	assert.False(t, PartType("tool").Valid())
	assert.False(t, PartType("").Valid())
}

func TestLastEventDate(t *testing.T) {
	p := Part{}
	_, ok := p.LastEventDate()
	assert.False(t, ok)

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// Entries are appended in wall-clock order, but the scan must not rely on it.
	p.EventsHistory = append(p.EventsHistory,
		EventEntry{Date: newer, Description: "swap motor", Technician: "lee"},
		EventEntry{Date: older, Description: "inspect", Technician: "lee"},
	)

	got, ok := p.LastEventDate()
	require.True(t, ok)
	assert.Equal(t, newer, got)
}
