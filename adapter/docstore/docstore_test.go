package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardroomhq/boardroom/capability"
)

func TestRecordRowRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	rec := capability.Record{
		Title:     "CEO - Discussion on launch",
		Category:  "Agent Interaction",
		Body:      "We should ship in Q4.",
		Author:    "CEO",
		Status:    "Active",
		CreatedAt: at,
	}

	row := recordFromCapability("coll-1", rec)
	require.NotEmpty(t, row.ID)
	assert.Equal(t, "coll-1", row.CollectionID)
	assert.Equal(t, at, row.CreatedAt)

	back := row.toCapability()
	assert.Equal(t, row.ID, back.ID)
	assert.Equal(t, rec.Title, back.Title)
	assert.Equal(t, rec.Category, back.Category)
	assert.Equal(t, rec.Body, back.Body)
	assert.Equal(t, rec.Author, back.Author)
	assert.Equal(t, rec.Status, back.Status)
}

func TestRecordFromCapabilityDefaultsCreatedAt(t *testing.T) {
	row := recordFromCapability("coll-1", capability.Record{Title: "x"})
	assert.False(t, row.CreatedAt.IsZero())
}

func TestRecordRowIDsAreUnique(t *testing.T) {
	a := recordFromCapability("coll-1", capability.Record{Title: "a"})
	b := recordFromCapability("coll-1", capability.Record{Title: "b"})
	assert.NotEqual(t, a.ID, b.ID)
}
