package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/internal/textutil"
)

// maxSocialPostLen is the platform character limit for one social post.
const maxSocialPostLen = 280

// CampaignPost is one published social post of a campaign.
type CampaignPost struct {
	Number  int               `json:"number"`
	Content string            `json:"content"`
	Result  capability.Result `json:"result"`
}

// Campaign is the result of a CMO-driven marketing campaign.
type Campaign struct {
	Plan  string         `json:"plan"`
	Posts []CampaignPost `json:"posts"`
}

// RunCampaign has the CMO plan a marketing campaign, document the plan,
// derive up to three social posts from it and publish them.
func (o *Orchestrator) RunCampaign(ctx context.Context, details string) (*Campaign, error) {
	cmo, ok := o.byName["CMO"]
	if !ok {
		return nil, fmt.Errorf("CMO agent not available")
	}

	planPrompt := fmt.Sprintf(`Marketing Campaign Planning:
%s

Please create a comprehensive marketing campaign plan including:
1. Target audience analysis
2. Key messaging
3. Social media strategy
4. Content calendar
5. Success metrics`, details)

	plan, degraded := cmo.Respond(ctx, planPrompt)
	if degraded {
		return nil, fmt.Errorf("campaign planning failed: %s", plan)
	}

	if collID := o.CollectionID(); collID != "" {
		title := fmt.Sprintf("Marketing Campaign Plan - %s", o.now().Format("2006-01-02"))
		if res := cmo.Document(ctx, plan, title, collID); !res.Success {
			o.logger.Warn("failed to persist campaign plan", "error", res.Err)
		}
	}

	postsPrompt := fmt.Sprintf(`Based on this campaign plan, create 3 engaging social media posts:
%s

Make the posts engaging, professional, and aligned with the campaign goals.`, plan)

	postsText := cmo.Think(ctx, postsPrompt)

	campaign := &Campaign{Plan: plan}
	published := 0
	for _, candidate := range strings.Split(postsText, "\n\n") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || len(candidate) > maxSocialPostLen {
			continue
		}
		if len(campaign.Posts) == 3 {
			break
		}
		res := cmo.Post(ctx, candidate)
		campaign.Posts = append(campaign.Posts, CampaignPost{
			Number:  len(campaign.Posts) + 1,
			Content: candidate,
			Result:  res,
		})
		if res.Success {
			published++
		}
	}

	status := fmt.Sprintf("📈 Marketing Campaign Launched\n\nCampaign plan documented.\nSocial posts published: %d\nNext steps: monitor engagement and adjust strategy", published)
	o.broadcast(ctx, cmo, status)

	return campaign, nil
}

// FinancialReport is the result of a CFO-generated report.
type FinancialReport struct {
	Report string `json:"report"`
}

// RunFinancialReport has the CFO generate a financial report, persist it and
// share the highlights on the primary channel.
func (o *Orchestrator) RunFinancialReport(ctx context.Context) (*FinancialReport, error) {
	cfo, ok := o.byName["CFO"]
	if !ok {
		return nil, fmt.Errorf("CFO agent not available")
	}

	b := o.cfg.Business
	prompt := fmt.Sprintf(`Financial Report Generation:
Business: %s
Industry: %s
Business Model: %s
Funding Stage: %s

Please generate a comprehensive financial report including:
1. Revenue projections
2. Cost analysis
3. Funding requirements
4. Key financial metrics
5. Risk assessment
6. Recommendations`,
		orDefault(b.Name, "Startup"),
		orDefault(b.Industry, "Unknown"),
		orDefault(b.Model, "Unknown"),
		orDefault(b.FundingStage, "Unknown"),
	)

	report, degraded := cfo.Respond(ctx, prompt)
	if degraded {
		return nil, fmt.Errorf("financial report generation failed: %s", report)
	}

	if collID := o.CollectionID(); collID != "" {
		title := fmt.Sprintf("Financial Report - %s", o.now().Format("2006-01-02"))
		if res := cfo.Document(ctx, report, title, collID); !res.Success {
			o.logger.Warn("failed to persist financial report", "error", res.Err)
		}
	}

	highlights := textutil.Excerpt(report, 200)
	o.broadcast(ctx, cfo, "💰 Financial Report Generated\n\nKey highlights:\n"+highlights)

	return &FinancialReport{Report: report}, nil
}
