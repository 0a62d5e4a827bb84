package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardroomhq/boardroom/capability"
)

func TestChannelBootstrapIsIdempotent(t *testing.T) {
	msg := newFakeMessaging()
	caps := capability.NewSet()
	caps.BindMessaging(msg)

	cfg := Config{
		Capabilities: caps,
		Roles:        roleConfigs("CEO", "CFO", "CTO"),
	}
	o := newTestOrchestrator(t, cfg)

	require.Equal(t, 1, msg.createCalls)
	require.Len(t, msg.channels, 1)
	firstID := msg.channels[DefaultPrimaryChannel]
	require.NotEmpty(t, firstID)

	// A repeated bootstrap on the same instance is a flag-guarded no-op.
	o.setupChannels(context.Background())
	assert.Equal(t, 1, msg.createCalls)

	// A fresh instance against the same account finds the channel instead of
	// creating a duplicate.
	caps2 := capability.NewSet()
	caps2.BindMessaging(msg)
	o2 := newTestOrchestrator(t, Config{
		Capabilities: caps2,
		Roles:        roleConfigs("CEO", "CFO", "CTO"),
	})

	assert.Len(t, msg.channels, 1)
	assert.Equal(t, firstID, msg.channels[DefaultPrimaryChannel])
	assert.True(t, o2.Status().ChannelsReady)
}

func TestChannelBootstrapInvitesConfiguredAgents(t *testing.T) {
	msg := newFakeMessaging()
	caps := capability.NewSet()
	caps.BindMessaging(msg)

	newTestOrchestrator(t, Config{
		Capabilities: caps,
		Roles:        roleConfigs("CEO", "CFO", "CTO"),
	})

	id := msg.channels[DefaultPrimaryChannel]
	assert.ElementsMatch(t, []string{"CEO", "CFO", "CTO"}, msg.members[id])
}

func TestChannelBootstrapMembershipFailureIsNonFatal(t *testing.T) {
	msg := newFakeMessaging()
	msg.failMember["CFO"] = true
	caps := capability.NewSet()
	caps.BindMessaging(msg)

	o := newTestOrchestrator(t, Config{
		Capabilities: caps,
		Roles:        roleConfigs("CEO", "CFO", "CTO"),
	})

	st := o.Status()
	assert.True(t, st.ChannelsReady)
	id := msg.channels[DefaultPrimaryChannel]
	assert.ElementsMatch(t, []string{"CEO", "CTO"}, msg.members[id])
}

func TestChannelBootstrapSkipsPlanWithoutCreator(t *testing.T) {
	msg := newFakeMessaging()
	caps := capability.NewSet()
	caps.BindMessaging(msg)

	// Default plan's creator is CEO, which is absent from the roster.
	o := newTestOrchestrator(t, Config{
		Capabilities: caps,
		Roles:        roleConfigs("A", "B"),
	})

	assert.Zero(t, msg.createCalls)
	st := o.Status()
	assert.True(t, st.ChannelsReady)
	assert.Empty(t, st.Channels)
}

func TestCollectionBootstrapIsIdempotent(t *testing.T) {
	docs := newFakeDocuments()
	caps := capability.NewSet()
	caps.BindDocuments(docs)

	o := newTestOrchestrator(t, Config{
		Capabilities: caps,
		Roles:        roleConfigs("CEO"),
	})

	require.Equal(t, 1, docs.ensureCalls)
	firstID := o.CollectionID()
	require.NotEmpty(t, firstID)

	o.setupCollection(context.Background())
	assert.Equal(t, 1, docs.ensureCalls)
	assert.Equal(t, firstID, o.CollectionID())

	// Second instance reuses the collection, same id.
	caps2 := capability.NewSet()
	caps2.BindDocuments(docs)
	o2 := newTestOrchestrator(t, Config{
		Capabilities: caps2,
		Roles:        roleConfigs("CEO"),
	})

	assert.Len(t, docs.collections, 1)
	assert.Equal(t, firstID, o2.CollectionID())
}

// memRegistry is an in-memory channel registry.
type memRegistry struct {
	mu       sync.Mutex
	channels map[string]string
	gets     int
	sets     int
}

func (r *memRegistry) GetChannel(_ context.Context, name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	id, ok := r.channels[name]
	return id, ok, nil
}

func (r *memRegistry) SetChannel(_ context.Context, name, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets++
	if r.channels == nil {
		r.channels = make(map[string]string)
	}
	r.channels[name] = id
	return nil
}

func TestChannelRegistryShortCircuitsRemoteLookup(t *testing.T) {
	msg := newFakeMessaging()
	caps := capability.NewSet()
	caps.BindMessaging(msg)
	reg := &memRegistry{channels: map[string]string{DefaultPrimaryChannel: "cached-1"}}

	o := newTestOrchestrator(t, Config{
		Capabilities: caps,
		Roles:        roleConfigs("CEO", "CFO", "CTO"),
		Registry:     reg,
	})

	assert.Zero(t, msg.createCalls)
	assert.True(t, o.Status().ChannelsReady)

	o.mu.Lock()
	got := o.channels[DefaultPrimaryChannel].id
	o.mu.Unlock()
	assert.Equal(t, "cached-1", got)
}

func TestChannelRegistryIsPopulatedOnCreate(t *testing.T) {
	msg := newFakeMessaging()
	caps := capability.NewSet()
	caps.BindMessaging(msg)
	reg := &memRegistry{}

	newTestOrchestrator(t, Config{
		Capabilities: caps,
		Roles:        roleConfigs("CEO", "CFO", "CTO"),
		Registry:     reg,
	})

	require.Equal(t, 1, msg.createCalls)
	assert.Equal(t, msg.channels[DefaultPrimaryChannel], reg.channels[DefaultPrimaryChannel])
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}
