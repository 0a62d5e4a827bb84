package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session duration bounds, in minutes.
const (
	MinSessionMinutes = 2
	MaxSessionMinutes = 480
)

// ErrNoActiveSession is returned when a session operation requires an active
// working session and none exists.
var ErrNoActiveSession = errors.New("no active working session")

// SessionState is the coarse working-session state.
type SessionState string

const (
	// SessionStarting is the state between creation and the initial meeting.
	SessionStarting SessionState = "starting"
	// SessionRunning is the periodic-interaction state.
	SessionRunning SessionState = "running"
	// SessionCompleted is terminal; a completed session is never reactivated.
	SessionCompleted SessionState = "completed"
)

// ActivityKind tags the entries of a working session.
type ActivityKind string

const (
	// ActivityInitialMeeting is the agenda-setting meeting a session opens with.
	ActivityInitialMeeting ActivityKind = "initial_meeting"
	// ActivityInteraction is one periodic discussion round.
	ActivityInteraction ActivityKind = "agent_interaction"
)

// Activity is one entry of a working session: the initial meeting or one
// periodic interaction, with per-agent contributions in speaking order.
type Activity struct {
	Kind      ActivityKind `json:"kind"`
	Number    int          `json:"number,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Topic     string       `json:"topic"`
	Round     *Round       `json:"round"`
}

// WorkingSession is the single actively-mutated record of the orchestrator.
// Once marked inactive it is terminal; starting a new session replaces the
// reference.
type WorkingSession struct {
	ID              string       `json:"session_id"`
	Active          bool         `json:"is_active"`
	State           SessionState `json:"state"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         time.Time    `json:"end_time"`
	DurationMinutes int          `json:"duration_minutes"`
	Activities      []Activity   `json:"activities"`
	FinalSummary    string       `json:"final_summary,omitempty"`
}

// StartSession wakes the orchestrator if asleep, re-runs the integration
// bootstraps if they are not ready yet, creates a fresh working session and
// opens it with an agenda-setting meeting round.
func (o *Orchestrator) StartSession(ctx context.Context, start, end time.Time, durationMinutes int) (*WorkingSession, error) {
	if durationMinutes < MinSessionMinutes || durationMinutes > MaxSessionMinutes {
		return nil, fmt.Errorf("session duration must be between %d and %d minutes, got %d", MinSessionMinutes, MaxSessionMinutes, durationMinutes)
	}
	o.logger.Info("starting working session", "start", start, "end", end, "duration_minutes", durationMinutes)

	o.wake()

	// Covers a session starting before initial setup completed or after an
	// external reset.
	o.setupChannels(ctx)
	o.setupCollection(ctx)

	session := &WorkingSession{
		ID:              "session_" + uuid.NewString(),
		Active:          true,
		State:           SessionStarting,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: durationMinutes,
	}
	o.mu.Lock()
	o.session = session
	o.mu.Unlock()

	agenda := fmt.Sprintf(`Working Session Agenda:
Duration: %d minutes
Start Time: %s
End Time: %s

Business Context: %s

Please provide your initial thoughts on what should be accomplished during this working session.`,
		durationMinutes,
		start.Format("15:04"),
		end.Format("15:04"),
		orDefault(o.cfg.Business.Idea, "Startup management"),
	)

	frame := roundFrame{
		excerptLen: meetingExcerptLen,
		titleFor: func(agentName string) string {
			return fmt.Sprintf("%s - Session Kickoff", agentName)
		},
		summary: "Session Kickoff Summary",
		banner:  "📋 Session Kickoff Summary\n",
	}
	round := o.runRound(ctx, agenda, frame)

	o.mu.Lock()
	session.Activities = append(session.Activities, Activity{
		Kind:      ActivityInitialMeeting,
		Timestamp: o.now(),
		Topic:     agenda,
		Round:     round,
	})
	session.State = SessionRunning
	o.mu.Unlock()

	return session, nil
}

// interactionCadence computes the number of periodic rounds for a session
// and the wall-clock interval between them: an interaction every 15 minutes
// with a floor of 3.
func interactionCadence(durationMinutes int) (count int, interval time.Duration) {
	count = durationMinutes / 15
	if count < 3 {
		count = 3
	}
	interval = time.Duration(durationMinutes/count) * time.Minute
	return count, interval
}

// interactionTopics is the fixed topic pool rounds rotate through,
// parameterized on the business context.
func (o *Orchestrator) interactionTopics() []string {
	b := o.cfg.Business
	return []string{
		fmt.Sprintf("Progress update and next steps for %s", orDefault(b.Name, "our startup")),
		fmt.Sprintf("Strategic decisions needed for %s", orDefault(b.Industry, "our industry")),
		fmt.Sprintf("Financial considerations for %s", orDefault(b.Model, "our business model")),
		"Marketing opportunities and customer acquisition strategies",
		"Technical roadmap and product development priorities",
	}
}

// RunSession drives the active session: periodic discussion rounds at the
// computed cadence, terminating early once wall-clock time passes the
// session's end, then a final aggregated summary. The session ends completed
// whether the loop ran out of ticks or out of time.
func (o *Orchestrator) RunSession(ctx context.Context) (*WorkingSession, error) {
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil || !session.Active || session.State != SessionRunning {
		return nil, ErrNoActiveSession
	}

	count, interval := interactionCadence(session.DurationMinutes)
	topics := o.interactionTopics()
	o.logger.Info("running working session", "session_id", session.ID, "interactions", count, "interval", interval)

	for i := 0; i < count; i++ {
		if !o.now().Before(session.EndTime) {
			o.logger.Info("working session time limit reached", "session_id", session.ID)
			break
		}
		if o.sessionStopped(session) {
			o.logger.Info("working session stopped, ending interaction loop", "session_id", session.ID)
			break
		}

		topic := topics[i%len(topics)]
		frame := roundFrame{
			header:     fmt.Sprintf("Working Session Interaction %d/%d", i+1, count),
			excerptLen: interactionExcerptLen,
			titleFor: func(agentName string) string {
				return fmt.Sprintf("%s - %s (Round %d)", agentName, topic, i+1)
			},
			summary: fmt.Sprintf("Interaction Summary - %s", topic),
			banner:  fmt.Sprintf("📋 Interaction %d Summary\n", i+1),
		}

		round := o.runRound(ctx, topic, frame)

		o.mu.Lock()
		session.Activities = append(session.Activities, Activity{
			Kind:      ActivityInteraction,
			Number:    i + 1,
			Timestamp: o.now(),
			Topic:     topic,
			Round:     round,
		})
		o.mu.Unlock()

		if i < count-1 {
			if err := o.wait(ctx, interval); err != nil {
				o.logger.Info("session wait interrupted", "error", err)
				break
			}
		}
	}

	o.finalizeSession(ctx, session)
	return session, nil
}

func (o *Orchestrator) sessionStopped(session *WorkingSession) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !session.Active
}

// finalizeSession aggregates every contribution and round summary across the
// session, asks the lead agent to synthesize a final summary, persists and
// broadcasts it, then marks the session completed.
func (o *Orchestrator) finalizeSession(ctx context.Context, session *WorkingSession) {
	o.mu.Lock()
	activities := append([]Activity(nil), session.Activities...)
	o.mu.Unlock()

	summary := o.generateSessionSummary(ctx, activities)

	o.mu.Lock()
	session.FinalSummary = summary
	session.Active = false
	session.State = SessionCompleted
	o.mu.Unlock()

	o.logger.Info("working session completed", "session_id", session.ID, "activities", len(activities))
}

func (o *Orchestrator) generateSessionSummary(ctx context.Context, activities []Activity) string {
	lead, ok := o.byName[o.cfg.LeadRole]
	if !ok {
		return ""
	}

	var contributions []string
	for _, act := range activities {
		if act.Round == nil {
			continue
		}
		for _, c := range act.Round.Contributions {
			contributions = append(contributions, fmt.Sprintf("%s: %s", c.Agent, c.Text))
		}
		if act.Round.Summary != "" {
			contributions = append(contributions, act.Round.Summary)
		}
	}

	prompt := fmt.Sprintf(`Working Session Final Summary Request:

Session Activities: %d interactions completed
Total Contributions: %d agent inputs

%s

Please provide a comprehensive summary of:
1. Key decisions made during the session
2. Action items and next steps
3. Strategic insights gained
4. Recommendations for follow-up

Business Context: %s`,
		len(activities),
		len(contributions),
		strings.Join(contributions, "\n"),
		orDefault(o.cfg.Business.Idea, "Startup management"),
	)

	summary, degraded := lead.Respond(ctx, prompt)
	if degraded {
		o.logger.Warn("final session summary degraded", "lead", lead.Name())
		return ""
	}

	if collID := o.CollectionID(); collID != "" {
		title := fmt.Sprintf("Working Session Summary - %s", o.now().Format("2006-01-02 15:04"))
		if res := lead.Document(ctx, summary, title, collID); !res.Success {
			o.logger.Warn("failed to persist session summary", "error", res.Err)
		}
	}
	o.broadcast(ctx, lead, "🎯 Working Session Complete\n\nSession Summary:\n"+summary)

	return summary
}

// StopSession is user-initiated early termination: the session is marked
// completed without the aggregation summary and the sleep cycle begins.
// Stopping twice returns ErrNoActiveSession the second time and starts no
// second sleep cycle.
func (o *Orchestrator) StopSession() error {
	o.mu.Lock()
	session := o.session
	if session == nil || !session.Active {
		o.mu.Unlock()
		return ErrNoActiveSession
	}
	session.Active = false
	session.State = SessionCompleted
	o.mu.Unlock()

	o.logger.Info("working session stopped by user", "session_id", session.ID)
	o.startSleepCycle()
	return nil
}

// startSleepCycle transitions the orchestrator to asleep and launches the
// background wait loop. Re-entrant: starting while already asleep is a no-op.
func (o *Orchestrator) startSleepCycle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sleeping {
		return
	}
	o.sleeping = true

	if o.sleepCancel != nil {
		o.sleepCancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.sleepCancel = cancel
	o.sleepDone = done

	o.logger.Info("agents entering sleep mode")
	go o.sleepLoop(ctx, done)
}

// sleepLoop polls at the configured interval and wakes the moment a new
// working session is marked active. Owned by the orchestrator and joined on
// Close; never a detached fire-and-forget loop.
func (o *Orchestrator) sleepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(o.sleepPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Debug("sleep cycle cancelled")
			return
		case <-ticker.C:
			o.mu.Lock()
			active := o.session != nil && o.session.Active
			o.mu.Unlock()
			if active {
				o.wake()
				return
			}
		}
	}
}

// wake transitions the orchestrator to awake, cancelling a pending sleep
// loop. Waking while already awake is a no-op.
func (o *Orchestrator) wake() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.sleeping {
		return
	}
	o.sleeping = false
	if o.sleepCancel != nil {
		o.sleepCancel()
		o.sleepCancel = nil
	}
	o.logger.Info("agents waking up for working session")
}

// Sleeping reports whether the orchestrator is in the asleep state.
func (o *Orchestrator) Sleeping() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sleeping
}

// Session returns the current working session, or nil if none was started.
func (o *Orchestrator) Session() *WorkingSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}
