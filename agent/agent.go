// Package agent implements one role-playing discussion participant: an
// identity bound to a shared language-model backend and the capability
// subset it is entitled to. Agents expose four operations (Think,
// Communicate, Document, Post) that all degrade gracefully when a backend
// or capability is unavailable, so the discussion protocol never aborts
// because a single participant failed.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/logging"
	"github.com/boardroomhq/boardroom/model"
)

// Config describes an agent's identity and entitlements. Immutable once an
// Agent is constructed from it.
type Config struct {
	Name        string            `json:"name"` // unique key, doubles as the posting identity
	Role        string            `json:"role"`
	Description string            `json:"description"`
	Icon        string            `json:"icon"`
	Color       string            `json:"color"`
	IsCustom    bool              `json:"is_custom"`
	Tools       []capability.Kind `json:"tools"`
}

// Exchange is one (context, reply) pair of the agent's conversation history.
type Exchange struct {
	Context string
	Reply   string
	At      time.Time
}

// Agent wraps an identity, a capability subset and conversation context. The
// capability set is a view into the orchestrator's adapter bindings, not
// owned; agents never outlive the orchestrator.
type Agent struct {
	config Config
	llm    model.Model
	caps   *capability.Set
	logger logging.Logger

	mu      sync.Mutex
	history []Exchange
}

// Options configure optional agent collaborators.
type Options struct {
	Logger logging.Logger
}

// New constructs an Agent from its config, the shared model client and the
// capability subset it may use.
func New(config Config, llm model.Model, caps *capability.Set, optFns ...func(o *Options)) *Agent {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if caps == nil {
		caps = capability.NewSet()
	}
	return &Agent{config: config, llm: llm, caps: caps, logger: opts.Logger}
}

// Config returns the agent's immutable configuration.
func (a *Agent) Config() Config { return a.config }

// Name returns the agent's identity name.
func (a *Agent) Name() string { return a.config.Name }

// History returns a copy of the agent's conversation history.
func (a *Agent) History() []Exchange {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Exchange, len(a.history))
	copy(out, a.history)
	return out
}

// SystemPrompt builds the system-role framing from the agent's identity,
// role description, responsibilities and capability list.
func (a *Agent) SystemPrompt() string {
	tools := make([]string, 0, len(a.config.Tools))
	for _, k := range a.config.Tools {
		tools = append(tools, string(k))
	}
	return fmt.Sprintf(`You are %s, the %s of a startup.

Role: %s

Your responsibilities:
- Make strategic decisions for your area of expertise
- Collaborate with other team members through the discussion channel
- Document important decisions and plans
- Execute actions using available tools when needed

Available tools: %s

Communication style:
- Keep responses conversational and concise (under 100 words)
- Respond directly to what others have said
- Be collaborative rather than presenting formal reports
- Use natural, engaging language
- Focus on actionable insights and next steps
`, a.config.Name, a.config.Role, a.config.Description, strings.Join(tools, ", "))
}

// Think asks the model to respond to the given discussion context. On any
// model failure it returns a user-visible degraded string instead of an
// error, so a round always receives a contribution for every agent.
func (a *Agent) Think(ctx context.Context, discussionContext string) string {
	text, _ := a.Respond(ctx, discussionContext)
	return text
}

// Respond is Think, plus a flag reporting whether the reply is a degraded
// placeholder produced by a generation failure.
func (a *Agent) Respond(ctx context.Context, discussionContext string) (string, bool) {
	start := time.Now()
	resp, err := a.llm.Generate(ctx, model.Request{
		Instructions: a.SystemPrompt(),
		Prompt:       discussionContext,
	})
	a.logModelCall(start, err)
	if err != nil {
		return fmt.Sprintf("I'm having trouble processing this right now. Error: %v", err), true
	}

	a.mu.Lock()
	a.history = append(a.history, Exchange{Context: discussionContext, Reply: resp.Text, At: time.Now()})
	a.mu.Unlock()

	return resp.Text, false
}

// Communicate posts a message to the named channel as the agent's identity.
func (a *Agent) Communicate(ctx context.Context, message, channel string) capability.Result {
	msg, ok := a.caps.Messaging()
	if !ok {
		return capability.Unavailable(string(capability.KindMessaging))
	}
	start := time.Now()
	receipt, err := msg.Post(ctx, channel, a.config.Name, message)
	if err == nil && !receipt.Success {
		err = errPostRejected
	}
	a.logAdapterCall(string(capability.KindMessaging), "post", start, err)
	if err != nil {
		return capability.Result{Success: false, Tool: string(capability.KindMessaging), Err: err.Error()}
	}
	return capability.Result{Success: true, Tool: string(capability.KindMessaging)}
}

// Document appends a record to the bound collection with the agent as author.
func (a *Agent) Document(ctx context.Context, content, title, collectionID string) capability.Result {
	docs, ok := a.caps.Documents()
	if !ok {
		return capability.Unavailable(string(capability.KindDocuments))
	}
	if collectionID == "" {
		return capability.Result{Success: false, Tool: string(capability.KindDocuments), Err: "no collection id provided"}
	}
	start := time.Now()
	_, err := docs.Append(ctx, collectionID, capability.Record{
		Title:     title,
		Category:  "Agent Interaction",
		Body:      content,
		Author:    a.config.Name,
		Status:    "Active",
		CreatedAt: time.Now(),
	})
	a.logAdapterCall(string(capability.KindDocuments), "append", start, err)
	if err != nil {
		return capability.Result{Success: false, Tool: string(capability.KindDocuments), Err: err.Error()}
	}
	return capability.Result{Success: true, Tool: string(capability.KindDocuments)}
}

// Post publishes a short text post via the social capability.
func (a *Agent) Post(ctx context.Context, message string) capability.Result {
	social, ok := a.caps.Social()
	if !ok {
		return capability.Unavailable(string(capability.KindSocial))
	}
	start := time.Now()
	_, err := social.Publish(ctx, message)
	a.logAdapterCall(string(capability.KindSocial), "publish", start, err)
	if err != nil {
		return capability.Result{Success: false, Tool: string(capability.KindSocial), Err: err.Error()}
	}
	return capability.Result{Success: true, Tool: string(capability.KindSocial)}
}

var errPostRejected = errors.New("post rejected")

// logModelCall hands generation latency to a structured logger that knows the
// model-call shape, falling back to plain leveled logging otherwise.
func (a *Agent) logModelCall(start time.Time, err error) {
	dur := time.Since(start)
	type modelCallLogger interface {
		LogModelCall(model string, dur time.Duration, success bool, err error)
	}
	if ml, ok := a.logger.(modelCallLogger); ok {
		ml.LogModelCall(a.llm.Info().Name, dur, err == nil, err)
		return
	}
	if err != nil {
		a.logger.Error("agent generation failed", "agent", a.config.Name, "error", err, "duration", dur)
		return
	}
	a.logger.Debug("agent generation completed", "agent", a.config.Name, "duration", dur)
}

// logAdapterCall is logModelCall for capability adapter operations.
func (a *Agent) logAdapterCall(tool, op string, start time.Time, err error) {
	dur := time.Since(start)
	type adapterCallLogger interface {
		LogAdapterCall(tool, op string, dur time.Duration, success bool, err error)
	}
	if al, ok := a.logger.(adapterCallLogger); ok {
		al.LogAdapterCall(tool, op, dur, err == nil, err)
		return
	}
	if err != nil {
		a.logger.Warn("adapter call failed", "agent", a.config.Name, "tool", tool, "operation", op, "error", err)
	}
}
