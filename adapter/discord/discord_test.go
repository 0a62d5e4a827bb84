package discord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresGuildAndTokens(t *testing.T) {
	_, err := New("", map[string]string{"CEO": "token"})
	require.Error(t, err)

	_, err = New("guild-1", nil)
	require.Error(t, err)
}

func TestNewBuildsSessionPerIdentity(t *testing.T) {
	a, err := New("guild-1", map[string]string{"CFO": "t2", "CEO": "t1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"CEO", "CFO"}, a.identities)
	assert.Len(t, a.sessions, 2)
	assert.Same(t, a.sessions["CEO"], a.adminSession())
}

func TestSessionFallsBackToAdmin(t *testing.T) {
	a, err := New("guild-1", map[string]string{"CEO": "t1"})
	require.NoError(t, err)

	s, err := a.session("CMO")
	require.NoError(t, err)
	assert.Same(t, a.adminSession(), s)
}

func TestRegisterChannelKeepsOrderAndDedupes(t *testing.T) {
	a, err := New("guild-1", map[string]string{"CEO": "t1"})
	require.NoError(t, err)

	a.registerChannel("executive-meeting", "100")
	a.registerChannel("ops", "200")
	a.registerChannel("executive-meeting", "999") // ignored

	assert.Equal(t, []string{"executive-meeting", "ops"}, a.Channels())
	assert.Equal(t, "100", a.channels["executive-meeting"])
}

func TestChunkMessageShortPassthrough(t *testing.T) {
	chunks := chunkMessage("hello")
	assert.Equal(t, []string{"hello"}, chunks)
}

func TestChunkMessageSplitsAtParagraphs(t *testing.T) {
	p1 := strings.Repeat("a", 1500)
	p2 := strings.Repeat("b", 1500)
	chunks := chunkMessage(p1 + "\n\n" + p2)

	require.Len(t, chunks, 2)
	assert.Equal(t, p1, chunks[0])
	assert.Equal(t, p2, chunks[1])
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), MaxMessageLen)
	}
}

func TestChunkMessageHardSplitsOversizedParagraph(t *testing.T) {
	chunks := chunkMessage(strings.Repeat("x", MaxMessageLen*2+10))

	require.GreaterOrEqual(t, len(chunks), 3)
	total := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), MaxMessageLen)
		total += len(c)
	}
	assert.Equal(t, MaxMessageLen*2+10, total)
}
