package orchestrator

import "github.com/boardroomhq/boardroom/capability"

// AgentStatus describes one roster member.
type AgentStatus struct {
	Role     string            `json:"role"`
	Tools    []capability.Kind `json:"tools"`
	IsCustom bool              `json:"is_custom"`
}

// SessionStatus is a snapshot of the current working session.
type SessionStatus struct {
	ID              string       `json:"session_id"`
	State           SessionState `json:"state"`
	Active          bool         `json:"is_active"`
	DurationMinutes int          `json:"duration_minutes"`
	Activities      int          `json:"activities"`
}

// Status is a point-in-time snapshot of the orchestrator.
type Status struct {
	Initialized     bool                   `json:"initialized"`
	Sleeping        bool                   `json:"sleeping"`
	Agents          map[string]AgentStatus `json:"agents"`
	Tools           []capability.Kind      `json:"tools"`
	ChannelsReady   bool                   `json:"channels_ready"`
	Channels        []string               `json:"channels"`
	PrimaryChannel  string                 `json:"primary_channel"`
	CollectionReady bool                   `json:"collection_ready"`
	Session         *SessionStatus         `json:"working_session,omitempty"`
}

// Status returns the current system status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	agents := make(map[string]AgentStatus, len(o.roster))
	for _, a := range o.roster {
		cfg := a.Config()
		agents[cfg.Name] = AgentStatus{Role: cfg.Role, Tools: cfg.Tools, IsCustom: cfg.IsCustom}
	}

	st := Status{
		Initialized:     o.initialized,
		Sleeping:        o.sleeping,
		Agents:          agents,
		Tools:           o.caps.Bound(),
		ChannelsReady:   o.channelsReady,
		Channels:        append([]string(nil), o.channelOrder...),
		PrimaryChannel:  o.cfg.PrimaryChannel,
		CollectionReady: o.collectionReady,
	}

	if o.session != nil {
		st.Session = &SessionStatus{
			ID:              o.session.ID,
			State:           o.session.State,
			Active:          o.session.Active,
			DurationMinutes: o.session.DurationMinutes,
			Activities:      len(o.session.Activities),
		}
	}

	return st
}
