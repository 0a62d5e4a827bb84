package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boardroomhq/boardroom/agent"
	"github.com/boardroomhq/boardroom/internal/textutil"
)

const (
	// maxContributionWords bounds every contribution post-generation.
	maxContributionWords = 100
	// meetingExcerptLen bounds the previous-speaker excerpt in meetings.
	meetingExcerptLen = 200
	// interactionExcerptLen bounds the excerpt in session interactions.
	interactionExcerptLen = 500
)

// Contribution is one agent's turn in a round.
type Contribution struct {
	Agent    string `json:"agent"`
	Text     string `json:"text"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Round is the result of one pass through the roster on a topic: one
// contribution per agent in roster order, plus an optional lead summary.
type Round struct {
	Topic         string         `json:"topic"`
	Contributions []Contribution `json:"contributions"`
	Summary       string         `json:"summary,omitempty"`
}

// Contribution returns the named agent's text, if it spoke this round.
func (r *Round) Contribution(agentName string) (string, bool) {
	for _, c := range r.Contributions {
		if c.Agent == agentName {
			return c.Text, true
		}
	}
	return "", false
}

// roundFrame parameterizes the prompt wording shared by meetings and
// session interactions.
type roundFrame struct {
	header     string // optional first line, e.g. "Working Session Interaction 2/6"
	excerptLen int
	titleFor   func(agentName string) string // document title per contribution
	summary    string                        // document title for the summary
	banner     string                        // broadcast prefix for the summary
}

// runRound executes the discussion protocol: a fold over the roster where
// step i consumes only the (identity, contribution) pair of step i-1. Every
// per-agent failure is isolated to that agent's turn.
func (o *Orchestrator) runRound(ctx context.Context, topic string, frame roundFrame) *Round {
	start := o.now()
	round := &Round{Topic: topic}

	var prev *Contribution
	for i, a := range o.roster {
		prompt := o.buildTurnPrompt(topic, frame, a, i, prev)

		text, degraded := a.Respond(ctx, prompt)
		text, cut := textutil.TruncateWords(text, maxContributionWords)
		if cut {
			o.logger.Debug("contribution truncated", "agent", a.Name())
		}

		contribution := Contribution{Agent: a.Name(), Text: text, Degraded: degraded}
		round.Contributions = append(round.Contributions, contribution)
		prev = &round.Contributions[len(round.Contributions)-1]

		o.broadcast(ctx, a, text)

		if collID := o.CollectionID(); collID != "" {
			if res := a.Document(ctx, text, frame.titleFor(a.Name()), collID); !res.Success {
				o.logger.Warn("failed to persist contribution", "agent", a.Name(), "error", res.Err)
			}
		}

		o.logger.Info("agent contributed to discussion", "agent", a.Name(), "degraded", degraded)
	}

	o.summarizeRound(ctx, round, frame)
	o.logRound(topic, len(round.Contributions), o.now().Sub(start))

	return round
}

// buildTurnPrompt produces the turn context: the first agent opens the
// discussion, every subsequent agent responds to a bounded excerpt of the
// immediately preceding contribution.
func (o *Orchestrator) buildTurnPrompt(topic string, frame roundFrame, a *agent.Agent, i int, prev *Contribution) string {
	var sb strings.Builder
	if frame.header != "" {
		sb.WriteString(frame.header)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Discussion Topic: %s\n\n", topic)

	if i == 0 || prev == nil {
		fmt.Fprintf(&sb, "You are %s (%s). Start the discussion on this topic.\n", a.Name(), a.Config().Role)
	} else {
		excerpt := textutil.Excerpt(prev.Text, frame.excerptLen)
		fmt.Fprintf(&sb, "%s just said: %q\n\n", prev.Agent, excerpt)
		fmt.Fprintf(&sb, "You are %s (%s). Respond to %s's thoughts and add your perspective.\n", a.Name(), a.Config().Role, prev.Agent)
	}
	sb.WriteString("Keep your response under 100 words and conversational in tone.")

	return sb.String()
}

// broadcast posts to the primary discussion channel, falling back to every
// other known channel for the agent's identity on failure. Total failure is
// logged, never fatal.
func (o *Orchestrator) broadcast(ctx context.Context, a *agent.Agent, text string) {
	res := a.Communicate(ctx, text, o.cfg.PrimaryChannel)
	if res.Success {
		return
	}
	if res.Unbound {
		return
	}
	o.logger.Warn("failed to post to primary channel", "agent", a.Name(), "error", res.Err)

	for _, name := range o.fallbackChannels() {
		if res := a.Communicate(ctx, text, name); res.Success {
			o.logger.Info("fallback post succeeded", "agent", a.Name(), "channel", name)
			return
		}
	}
	o.logger.Warn("could not post to any channel", "agent", a.Name())
}

// fallbackChannels is the primary channel followed by every other registered
// channel, in registration order.
func (o *Orchestrator) fallbackChannels() []string {
	names := []string{o.cfg.PrimaryChannel}
	for _, n := range o.knownChannels() {
		if n != o.cfg.PrimaryChannel {
			names = append(names, n)
		}
	}
	return names
}

// summarizeRound asks the lead agent to read the serialized contributions
// and produce a summary, which is persisted and broadcast the same way as a
// contribution. Absence of the lead role skips summarization.
func (o *Orchestrator) summarizeRound(ctx context.Context, round *Round, frame roundFrame) {
	lead, ok := o.byName[o.cfg.LeadRole]
	if !ok {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Summary Request:\nTopic: %s\nDiscussions:\n", round.Topic)
	for _, c := range round.Contributions {
		fmt.Fprintf(&sb, "%s: %s\n", c.Agent, c.Text)
	}
	sb.WriteString("\nPlease provide a concise summary of the key decisions and action items from this discussion.")

	summary, degraded := lead.Respond(ctx, sb.String())
	if degraded {
		o.logger.Warn("summary generation degraded", "lead", lead.Name())
		return
	}
	round.Summary = summary

	if collID := o.CollectionID(); collID != "" {
		if res := lead.Document(ctx, summary, frame.summary, collID); !res.Success {
			o.logger.Warn("failed to persist summary", "error", res.Err)
		}
	}
	o.broadcast(ctx, lead, frame.banner+summary)
}

func (o *Orchestrator) logRound(topic string, contributions int, dur time.Duration) {
	type roundLogger interface {
		LogRound(topic string, contributions int, dur time.Duration)
	}
	if rl, ok := o.logger.(roundLogger); ok {
		rl.LogRound(topic, contributions, dur)
		return
	}
	o.logger.Info("discussion round completed", "topic", topic, "contributions", contributions, "duration", dur)
}
