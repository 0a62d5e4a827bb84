package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/boardroomhq/boardroom/agent"
	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/model"
)

// scriptedModel routes every generation through a test-supplied function.
type scriptedModel struct {
	fn func(req model.Request) (*model.Response, error)
}

func (s *scriptedModel) Generate(_ context.Context, req model.Request) (*model.Response, error) {
	return s.fn(req)
}

func (s *scriptedModel) Info() model.Info { return model.Info{Name: "scripted", Provider: "mock"} }

// agentNameFromInstructions recovers the speaking agent from the system
// prompt ("You are NAME, the ROLE of a startup.").
func agentNameFromInstructions(instructions string) string {
	rest := strings.TrimPrefix(instructions, "You are ")
	if i := strings.Index(rest, ","); i > 0 {
		return rest[:i]
	}
	return rest
}

type sentPost struct {
	Channel  string
	Identity string
	Text     string
}

// fakeMessaging is an in-memory capability.Messaging that simulates an
// external account: channels persist across adapter calls, so a second
// bootstrap sees the channels the first one created.
type fakeMessaging struct {
	mu          sync.Mutex
	createCalls int
	nextID      int
	channels    map[string]string   // name -> id
	members     map[string][]string // channel id -> identities
	posts       []sentPost
	failPostTo  map[string]bool // channel name -> fail posts
	failMember  map[string]bool // identity -> fail joins
}

func newFakeMessaging() *fakeMessaging {
	return &fakeMessaging{
		channels:   make(map[string]string),
		members:    make(map[string][]string),
		failPostTo: make(map[string]bool),
		failMember: make(map[string]bool),
	}
}

func (f *fakeMessaging) EnsureChannel(_ context.Context, name string) (capability.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if id, ok := f.channels[name]; ok {
		return capability.Channel{ID: id, AlreadyExisted: true}, nil
	}
	f.nextID++
	id := fmt.Sprintf("chan-%d", f.nextID)
	f.channels[name] = id
	return capability.Channel{ID: id}, nil
}

func (f *fakeMessaging) EnsureMember(_ context.Context, channelID, identity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMember[identity] {
		return fmt.Errorf("cannot add %s", identity)
	}
	f.members[channelID] = append(f.members[channelID], identity)
	return nil
}

func (f *fakeMessaging) Post(_ context.Context, channel, identity, text string) (capability.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPostTo[channel] {
		return capability.Receipt{}, fmt.Errorf("post to %s failed", channel)
	}
	f.posts = append(f.posts, sentPost{Channel: channel, Identity: identity, Text: text})
	return capability.Receipt{Success: true}, nil
}

func (f *fakeMessaging) Channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.channels))
	for n := range f.channels {
		names = append(names, n)
	}
	return names
}

func (f *fakeMessaging) sentPosts() []sentPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentPost(nil), f.posts...)
}

// fakeDocuments is an in-memory capability.Documents with the same
// external-state persistence semantics as fakeMessaging.
type fakeDocuments struct {
	mu          sync.Mutex
	ensureCalls int
	collections map[string]string // name -> id
	records     map[string][]capability.Record
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{
		collections: make(map[string]string),
		records:     make(map[string][]capability.Record),
	}
}

func (f *fakeDocuments) EnsureCollection(_ context.Context, name string, _ capability.Schema) (capability.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	if id, ok := f.collections[name]; ok {
		return capability.Collection{ID: id, AlreadyExisted: true}, nil
	}
	id := fmt.Sprintf("coll-%d", len(f.collections)+1)
	f.collections[name] = id
	return capability.Collection{ID: id}, nil
}

func (f *fakeDocuments) FindByTitle(_ context.Context, collectionID, title string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records[collectionID] {
		if rec.Title == title {
			return rec.ID, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeDocuments) Append(_ context.Context, collectionID string, rec capability.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = fmt.Sprintf("rec-%d", len(f.records[collectionID])+1)
	f.records[collectionID] = append(f.records[collectionID], rec)
	return rec.ID, nil
}

func (f *fakeDocuments) Query(_ context.Context, collectionID string, _ *capability.Filter) ([]capability.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capability.Record(nil), f.records[collectionID]...), nil
}

func (f *fakeDocuments) stored(collectionID string) []capability.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capability.Record(nil), f.records[collectionID]...)
}

// roleConfigs builds minimal role configs with full tool entitlements.
func roleConfigs(names ...string) []agent.Config {
	configs := make([]agent.Config, 0, len(names))
	for _, n := range names {
		configs = append(configs, agent.Config{
			Name:        n,
			Role:        n + " role",
			Description: n + " duties",
			Tools:       []capability.Kind{capability.KindMessaging, capability.KindDocuments, capability.KindSocial},
		})
	}
	return configs
}

func echoModel() *scriptedModel {
	return &scriptedModel{fn: func(req model.Request) (*model.Response, error) {
		return &model.Response{Text: "reply from " + agentNameFromInstructions(req.Instructions)}, nil
	}}
}

func newTestOrchestrator(t *testing.T, cfg Config, optFns ...func(o *Options)) *Orchestrator {
	t.Helper()
	if cfg.Model == nil {
		cfg.Model = echoModel()
	}
	base := func(o *Options) {
		o.SleepPoll = 5 * time.Millisecond
		o.Wait = func(context.Context, time.Duration) error { return nil }
	}
	o, err := New(context.Background(), cfg, append([]func(o *Options){base}, optFns...)...)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}
