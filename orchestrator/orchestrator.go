// Package orchestrator owns the agent roster, the integration adapters, the
// working-session state machine and the round-robin discussion protocol. One
// orchestrator instance exists per process; all session and registry state
// lives in its fields and is never ambient.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/boardroomhq/boardroom/agent"
	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/logging"
	"github.com/boardroomhq/boardroom/model"
)

// DefaultPrimaryChannel is where all discussions go unless configured otherwise.
const DefaultPrimaryChannel = "executive-meeting"

// DefaultCollectionName is the well-known document collection.
const DefaultCollectionName = "Boardroom Data"

// DefaultLeadRole designates the summarizing agent.
const DefaultLeadRole = "CEO"

// ChannelPlan names a channel to bootstrap, its designated creator agent and
// the identities to auto-invite.
type ChannelPlan struct {
	Name       string   `json:"name"`
	Creator    string   `json:"creator"`
	AutoInvite []string `json:"auto_invite"`
	Private    bool     `json:"private"`
}

// DefaultChannelPlans returns the fixed channel set all discussions use.
func DefaultChannelPlans() []ChannelPlan {
	return []ChannelPlan{
		{
			Name:       DefaultPrimaryChannel,
			Creator:    "CEO",
			AutoInvite: []string{"CEO", "CFO", "CTO"},
			Private:    true,
		},
	}
}

// BusinessInfo is the free-text business context agents discuss.
type BusinessInfo struct {
	Name         string `json:"name"`
	Industry     string `json:"industry"`
	Model        string `json:"business_model"`
	FundingStage string `json:"funding_stage"`
	Idea         string `json:"idea"`
}

// Registry is an optional external cache of channel registrations consulted
// before remote lookups, so repeat bootstraps against the same account reuse
// known ids without adapter round-trips.
type Registry interface {
	GetChannel(ctx context.Context, name string) (id string, ok bool, err error)
	SetChannel(ctx context.Context, name, id string) error
}

// Config bundles everything the orchestrator is constructed from.
type Config struct {
	Model        model.Model
	Capabilities *capability.Set
	Roles        []agent.Config
	Business     BusinessInfo

	// Channels defaults to DefaultChannelPlans when empty.
	Channels []ChannelPlan
	// PrimaryChannel defaults to DefaultPrimaryChannel.
	PrimaryChannel string
	// CollectionName defaults to DefaultCollectionName.
	CollectionName string
	// LeadRole defaults to DefaultLeadRole.
	LeadRole string
	// Registry is optional.
	Registry Registry
}

// channelReg is one cached channel registration. Created lazily during
// bootstrap and never re-created once present.
type channelReg struct {
	id         string
	creator    string
	autoInvite []string
	private    bool
}

// Options configure optional orchestrator collaborators. The clock, wait and
// poll knobs exist so tests can drive the session cadence synthetically.
type Options struct {
	Logger    logging.Logger
	Now       func() time.Time
	Wait      func(ctx context.Context, d time.Duration) error
	SleepPoll time.Duration
}

// Orchestrator coordinates the executive agents. See the package comment for
// the ownership model.
type Orchestrator struct {
	cfg    Config
	logger logging.Logger
	caps   *capability.Set

	roster []*agent.Agent
	byName map[string]*agent.Agent

	now       func() time.Time
	wait      func(ctx context.Context, d time.Duration) error
	sleepPoll time.Duration

	mu              sync.Mutex
	initialized     bool
	channelsReady   bool
	collectionReady bool
	channels        map[string]*channelReg
	channelOrder    []string
	collectionID    string
	session         *WorkingSession
	sleeping        bool
	sleepCancel     context.CancelFunc
	sleepDone       chan struct{}
}

// New constructs the orchestrator: agents are instantiated from the role
// configs with the capability subset each is entitled to, then the channel
// and collection bootstraps run. A nil model is the only unrecoverable
// construction error at this layer; credential resolution happens upstream.
func New(ctx context.Context, cfg Config, optFns ...func(o *Options)) (*Orchestrator, error) {
	if cfg.Model == nil {
		return nil, errors.New("orchestrator: model is required")
	}
	if cfg.Capabilities == nil {
		cfg.Capabilities = capability.NewSet()
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = DefaultChannelPlans()
	}
	if cfg.PrimaryChannel == "" {
		cfg.PrimaryChannel = DefaultPrimaryChannel
	}
	if cfg.CollectionName == "" {
		cfg.CollectionName = DefaultCollectionName
	}
	if cfg.LeadRole == "" {
		cfg.LeadRole = DefaultLeadRole
	}

	opts := Options{
		Logger:    logging.NoOpLogger{},
		Now:       time.Now,
		SleepPoll: 60 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Wait == nil {
		opts.Wait = func(ctx context.Context, d time.Duration) error {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		}
	}

	o := &Orchestrator{
		cfg:       cfg,
		logger:    opts.Logger,
		caps:      cfg.Capabilities,
		byName:    make(map[string]*agent.Agent),
		now:       opts.Now,
		wait:      opts.Wait,
		sleepPoll: opts.SleepPoll,
		channels:  make(map[string]*channelReg),
	}

	for _, roleCfg := range cfg.Roles {
		if _, dup := o.byName[roleCfg.Name]; dup {
			continue
		}
		a := agent.New(roleCfg, cfg.Model, o.entitledSubset(roleCfg), func(ao *agent.Options) {
			ao.Logger = o.logger
		})
		o.roster = append(o.roster, a)
		o.byName[roleCfg.Name] = a
		o.logger.Info("initialized agent", "agent", roleCfg.Name, "role", roleCfg.Role)
	}

	o.setupChannels(ctx)
	o.setupCollection(ctx)

	o.mu.Lock()
	o.initialized = true
	o.mu.Unlock()
	o.logger.Info("orchestrator initialized and ready", "agents", len(o.roster))

	return o, nil
}

// entitledSubset projects the orchestrator's bindings onto one agent's tool
// list. Agents hold a view, never the full adapter map.
func (o *Orchestrator) entitledSubset(cfg agent.Config) *capability.Set {
	sub := capability.NewSet()
	for _, kind := range cfg.Tools {
		switch kind {
		case capability.KindMessaging:
			if m, ok := o.caps.Messaging(); ok {
				sub.BindMessaging(m)
			}
		case capability.KindDocuments:
			if d, ok := o.caps.Documents(); ok {
				sub.BindDocuments(d)
			}
		case capability.KindSocial:
			if s, ok := o.caps.Social(); ok {
				sub.BindSocial(s)
			}
		}
	}
	return sub
}

// Roster returns the agents in speaking order.
func (o *Orchestrator) Roster() []*agent.Agent {
	out := make([]*agent.Agent, len(o.roster))
	copy(out, o.roster)
	return out
}

// Agent returns the named agent, if present.
func (o *Orchestrator) Agent(name string) (*agent.Agent, bool) {
	a, ok := o.byName[name]
	return a, ok
}

// setupChannels performs the idempotent channel bootstrap. It is a no-op
// when messaging is unbound or a previous bootstrap already completed. The
// readiness flag is set only after every configured channel was attempted.
func (o *Orchestrator) setupChannels(ctx context.Context) {
	msg, ok := o.caps.Messaging()
	if !ok {
		return
	}
	o.mu.Lock()
	ready := o.channelsReady
	o.mu.Unlock()
	if ready {
		return
	}

	for _, plan := range o.cfg.Channels {
		if _, ok := o.byName[plan.Creator]; !ok {
			o.logger.Warn("no agent found for channel creator, skipping channel", "creator", plan.Creator, "channel", plan.Name)
			continue
		}

		id, existed := o.lookupCachedChannel(ctx, plan.Name)
		if id == "" {
			ch, err := msg.EnsureChannel(ctx, plan.Name)
			if err != nil {
				o.logger.Warn("failed to create channel", "channel", plan.Name, "error", err)
				continue
			}
			id, existed = ch.ID, ch.AlreadyExisted
			o.cacheChannel(ctx, plan.Name, id)
		}
		if existed {
			o.logger.Debug("channel already exists", "channel", plan.Name)
		} else {
			o.logger.Info("channel created", "channel", plan.Name, "creator", plan.Creator)
		}

		o.mu.Lock()
		o.channels[plan.Name] = &channelReg{id: id, creator: plan.Creator, autoInvite: plan.AutoInvite, private: plan.Private}
		o.channelOrder = append(o.channelOrder, plan.Name)
		o.mu.Unlock()

		for _, invitee := range plan.AutoInvite {
			if _, ok := o.byName[invitee]; !ok {
				continue
			}
			if err := msg.EnsureMember(ctx, id, invitee); err != nil {
				o.logger.Warn("could not join channel", "agent", invitee, "channel", plan.Name, "error", err)
				continue
			}
			o.logger.Debug("agent joined channel", "agent", invitee, "channel", plan.Name)
		}
	}

	o.mu.Lock()
	o.channelsReady = true
	names := append([]string(nil), o.channelOrder...)
	o.mu.Unlock()
	o.logger.Info("channels initialized", "channels", names)
}

func (o *Orchestrator) lookupCachedChannel(ctx context.Context, name string) (string, bool) {
	if o.cfg.Registry == nil {
		return "", false
	}
	id, ok, err := o.cfg.Registry.GetChannel(ctx, name)
	if err != nil {
		o.logger.Warn("channel registry lookup failed", "channel", name, "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	return id, true
}

func (o *Orchestrator) cacheChannel(ctx context.Context, name, id string) {
	if o.cfg.Registry == nil {
		return
	}
	if err := o.cfg.Registry.SetChannel(ctx, name, id); err != nil {
		o.logger.Warn("channel registry store failed", "channel", name, "error", err)
	}
}

// setupCollection performs the idempotent document-collection bootstrap.
func (o *Orchestrator) setupCollection(ctx context.Context) {
	docs, ok := o.caps.Documents()
	if !ok {
		return
	}
	o.mu.Lock()
	ready := o.collectionReady
	o.mu.Unlock()
	if ready {
		return
	}

	coll, err := docs.EnsureCollection(ctx, o.cfg.CollectionName, DefaultSchema())
	if err != nil {
		o.logger.Error("collection bootstrap failed", "collection", o.cfg.CollectionName, "error", err)
		return
	}
	if coll.AlreadyExisted {
		o.logger.Info("reusing existing collection", "collection", o.cfg.CollectionName, "id", coll.ID)
	} else {
		o.logger.Info("collection created", "collection", o.cfg.CollectionName, "id", coll.ID)
	}

	o.mu.Lock()
	o.collectionID = coll.ID
	o.collectionReady = true
	o.mu.Unlock()
}

// DefaultSchema is the fixed record schema collections are created with.
func DefaultSchema() capability.Schema {
	return capability.Schema{Fields: []capability.SchemaField{
		{Name: "Title", Type: capability.FieldText},
		{Name: "Category", Type: capability.FieldSelect, Options: []string{
			"Startup Config", "Working Session", "Agent Interaction", "System Update",
		}},
		{Name: "Body", Type: capability.FieldText},
		{Name: "CreatedAt", Type: capability.FieldTimestamp},
		{Name: "Status", Type: capability.FieldSelect, Options: []string{
			"Active", "Completed", "Archived",
		}},
	}}
}

// CollectionID returns the bound collection id, empty when documents are
// unavailable or bootstrap has not completed.
func (o *Orchestrator) CollectionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.collectionID
}

// knownChannels returns the registered channel names in registration order.
func (o *Orchestrator) knownChannels() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.channelOrder...)
}

// Close cancels a pending sleep loop and joins it. Safe to call more than once.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	cancel := o.sleepCancel
	done := o.sleepDone
	o.sleeping = false
	o.sleepCancel = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
