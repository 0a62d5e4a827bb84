package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Meeting is the result of a one-shot team meeting on a free-form agenda.
type Meeting struct {
	MeetingID    string   `json:"meeting_id"`
	Agenda       string   `json:"agenda"`
	Participants []string `json:"participants"`
	Round        *Round   `json:"round"`
}

// RunMeeting runs one discussion round over the full roster with the agenda
// as topic, framed by the business context.
func (o *Orchestrator) RunMeeting(ctx context.Context, agenda string) (*Meeting, error) {
	if len(o.roster) == 0 {
		return nil, fmt.Errorf("no agents configured")
	}
	o.logger.Info("starting team meeting", "agenda", agenda)

	b := o.cfg.Business
	topic := fmt.Sprintf(`Business: %s
Industry: %s
Business Model: %s
Funding Stage: %s

Meeting Agenda: %s

Please provide your thoughts and recommendations based on your role.`,
		orDefault(b.Name, "Startup"),
		orDefault(b.Industry, "Unknown"),
		orDefault(b.Model, "Unknown"),
		orDefault(b.FundingStage, "Unknown"),
		agenda,
	)

	frame := roundFrame{
		excerptLen: meetingExcerptLen,
		titleFor: func(agentName string) string {
			return fmt.Sprintf("%s - Discussion on %s", agentName, agenda)
		},
		summary: fmt.Sprintf("Meeting Summary - %s", agenda),
		banner:  "📋 Meeting Summary\n",
	}

	round := o.runRound(ctx, topic, frame)

	participants := make([]string, 0, len(o.roster))
	for _, a := range o.roster {
		participants = append(participants, a.Name())
	}

	return &Meeting{
		MeetingID:    "meeting_" + uuid.NewString(),
		Agenda:       agenda,
		Participants: participants,
		Round:        round,
	}, nil
}
