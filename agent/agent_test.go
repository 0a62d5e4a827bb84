package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/logging"
	"github.com/boardroomhq/boardroom/model"
)

type fakeMessaging struct {
	posts    []string
	failPost bool
}

func (f *fakeMessaging) EnsureChannel(context.Context, string) (capability.Channel, error) {
	return capability.Channel{ID: "chan-1"}, nil
}

func (f *fakeMessaging) EnsureMember(context.Context, string, string) error { return nil }

func (f *fakeMessaging) Post(_ context.Context, channel, identity, text string) (capability.Receipt, error) {
	if f.failPost {
		return capability.Receipt{}, errors.New("post failed")
	}
	f.posts = append(f.posts, channel+"|"+identity+"|"+text)
	return capability.Receipt{Success: true}, nil
}

func (f *fakeMessaging) Channels() []string { return []string{"executive-meeting"} }

type fakeDocuments struct {
	records []capability.Record
}

func (f *fakeDocuments) EnsureCollection(context.Context, string, capability.Schema) (capability.Collection, error) {
	return capability.Collection{ID: "coll-1"}, nil
}

func (f *fakeDocuments) FindByTitle(context.Context, string, string) (string, bool, error) {
	return "", false, nil
}

func (f *fakeDocuments) Append(_ context.Context, _ string, rec capability.Record) (string, error) {
	f.records = append(f.records, rec)
	return "rec-1", nil
}

func (f *fakeDocuments) Query(context.Context, string, *capability.Filter) ([]capability.Record, error) {
	return f.records, nil
}

func testAgent(caps *capability.Set) (*Agent, *model.MockModel) {
	llm := model.NewMockModel("mock", "mock")
	cfg := BuiltinRoles()["CEO"]
	return New(cfg, llm, caps), llm
}

func TestAgent_Think(t *testing.T) {
	a, llm := testAgent(nil)
	llm.AddResponse("What should we build?", "A lean MVP.")

	reply := a.Think(context.Background(), "What should we build?")
	assert.Equal(t, "A lean MVP.", reply)

	history := a.History()
	require.Len(t, history, 1)
	assert.Equal(t, "What should we build?", history[0].Context)
	assert.Equal(t, "A lean MVP.", history[0].Reply)
}

func TestAgent_Think_DegradedOnModelFailure(t *testing.T) {
	a, llm := testAgent(nil)
	llm.FailWith(errors.New("rate limited"))

	reply := a.Think(context.Background(), "anything")
	assert.Contains(t, reply, "I'm having trouble processing this right now")
	assert.Contains(t, reply, "rate limited")
	assert.Empty(t, a.History())
}

func TestAgent_SystemPrompt(t *testing.T) {
	a, _ := testAgent(nil)
	prompt := a.SystemPrompt()
	assert.Contains(t, prompt, "You are CEO, the Chief Executive Officer")
	assert.Contains(t, prompt, "Strategic planning and overall business direction")
	assert.Contains(t, prompt, "messaging, documents")
}

func TestAgent_Communicate(t *testing.T) {
	msg := &fakeMessaging{}
	caps := capability.NewSet()
	caps.BindMessaging(msg)
	a, _ := testAgent(caps)

	res := a.Communicate(context.Background(), "hello team", "executive-meeting")
	assert.True(t, res.Success)
	assert.Equal(t, "messaging", res.Tool)
	require.Len(t, msg.posts, 1)
	assert.Equal(t, "executive-meeting|CEO|hello team", msg.posts[0])
}

func TestAgent_Communicate_Unbound(t *testing.T) {
	a, _ := testAgent(capability.NewSet())
	res := a.Communicate(context.Background(), "hello", "executive-meeting")
	assert.False(t, res.Success)
	assert.Equal(t, "messaging", res.Tool)
	assert.True(t, res.Unbound)
	assert.Equal(t, "messaging not available", res.Err)
}

func TestAgent_Communicate_PostError(t *testing.T) {
	caps := capability.NewSet()
	caps.BindMessaging(&fakeMessaging{failPost: true})
	a, _ := testAgent(caps)

	res := a.Communicate(context.Background(), "hello", "executive-meeting")
	assert.False(t, res.Success)
	assert.Equal(t, "post failed", res.Err)
}

func TestAgent_Document(t *testing.T) {
	docs := &fakeDocuments{}
	caps := capability.NewSet()
	caps.BindDocuments(docs)
	a, _ := testAgent(caps)

	res := a.Document(context.Background(), "body", "CEO - decision", "coll-1")
	assert.True(t, res.Success)
	require.Len(t, docs.records, 1)
	assert.Equal(t, "CEO", docs.records[0].Author)
	assert.Equal(t, "Agent Interaction", docs.records[0].Category)
	assert.Equal(t, "Active", docs.records[0].Status)
}

func TestAgent_Document_NoCollection(t *testing.T) {
	caps := capability.NewSet()
	caps.BindDocuments(&fakeDocuments{})
	a, _ := testAgent(caps)

	res := a.Document(context.Background(), "body", "title", "")
	assert.False(t, res.Success)
	assert.Equal(t, "no collection id provided", res.Err)
}

func TestAgent_Post_Unbound(t *testing.T) {
	a, _ := testAgent(capability.NewSet())
	res := a.Post(context.Background(), "ship it")
	assert.False(t, res.Success)
	assert.Equal(t, "social", res.Tool)
}

type recordingLogger struct {
	logging.NoOpLogger
	modelCalls   []string
	adapterCalls []string
}

func (l *recordingLogger) LogModelCall(model string, _ time.Duration, success bool, _ error) {
	l.modelCalls = append(l.modelCalls, fmt.Sprintf("%s success=%t", model, success))
}

func (l *recordingLogger) LogAdapterCall(tool, op string, _ time.Duration, success bool, _ error) {
	l.adapterCalls = append(l.adapterCalls, fmt.Sprintf("%s/%s success=%t", tool, op, success))
}

func TestAgent_ModelCallsReachStructuredLogger(t *testing.T) {
	rec := &recordingLogger{}
	llm := model.NewMockModel("mock-model", "mock")
	a := New(BuiltinRoles()["CEO"], llm, nil, func(o *Options) { o.Logger = rec })

	a.Think(context.Background(), "anything")
	llm.FailWith(errors.New("rate limited"))
	a.Think(context.Background(), "anything else")

	assert.Equal(t, []string{
		"mock-model success=true",
		"mock-model success=false",
	}, rec.modelCalls)
}

func TestAgent_AdapterCallsReachStructuredLogger(t *testing.T) {
	rec := &recordingLogger{}
	caps := capability.NewSet()
	caps.BindMessaging(&fakeMessaging{})
	caps.BindDocuments(&fakeDocuments{})
	llm := model.NewMockModel("mock", "mock")
	a := New(BuiltinRoles()["CEO"], llm, caps, func(o *Options) { o.Logger = rec })

	a.Communicate(context.Background(), "hello", "executive-meeting")
	a.Document(context.Background(), "body", "CEO - decision", "coll-1")
	a.Post(context.Background(), "unbound, must not log")

	assert.Equal(t, []string{
		"messaging/post success=true",
		"documents/append success=true",
	}, rec.adapterCalls)
}

func TestAgent_AdapterCallLoggedOnFailure(t *testing.T) {
	rec := &recordingLogger{}
	caps := capability.NewSet()
	caps.BindMessaging(&fakeMessaging{failPost: true})
	llm := model.NewMockModel("mock", "mock")
	a := New(BuiltinRoles()["CEO"], llm, caps, func(o *Options) { o.Logger = rec })

	res := a.Communicate(context.Background(), "hello", "executive-meeting")
	assert.False(t, res.Success)
	assert.Equal(t, []string{"messaging/post success=false"}, rec.adapterCalls)
}

func TestResolveRoles(t *testing.T) {
	custom := map[string]CustomRole{
		"CEO":  {Description: "should lose to builtin"},
		"CPO":  {Description: "Chief Product Officer duties"},
		"NOPE": {},
	}

	configs := ResolveRoles([]string{"CEO", "CPO", "Unknown"}, custom)
	require.Len(t, configs, 2)

	assert.Equal(t, "Strategic planning and overall business direction", configs[0].Description)
	assert.False(t, configs[0].IsCustom)

	assert.Equal(t, "CPO", configs[1].Name)
	assert.True(t, configs[1].IsCustom)
	assert.Equal(t, "🤖", configs[1].Icon)
}
