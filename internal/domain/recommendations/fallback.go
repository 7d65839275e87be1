package recommendations

import (
	"fmt"
	"math"

	"readiness/internal/domain/assessment"
)

var fallbackQuickWins = map[assessment.CategoryID][]string{
	assessment.Strategy: {
		"Name one partner as the accountable AI sponsor.",
		"Circulate a short interim policy on generative AI use.",
		"List three client-service goals AI could support.",
	},
	assessment.Data: {
		"Inventory where matter documents and precedents are stored.",
		"Flag privileged and confidential repositories.",
		"Pick one practice group's templates to clean up first.",
	},
	assessment.Technology: {
		"Confirm multi-factor authentication on all client systems.",
		"Document the integrations an AI tool would need.",
		"Ask current vendors about private AI deployment options.",
	},
	assessment.Team: {
		"Host a lunch-and-learn on AI risks and benefits.",
		"Recruit two volunteer AI champions.",
		"Share a one-page guide to safe prompting.",
	},
	assessment.Implementation: {
		"Choose one low-risk internal workflow to pilot.",
		"Define the success metric before the pilot starts.",
		"Schedule a 30-day check-in on pilot results.",
	},
}

var fallbackRecommendations = map[assessment.CategoryID][]Recommendation{
	assessment.Strategy: {
		{
			Title:         "Establish AI governance",
			WhyItMatters:  "Clear ownership keeps AI adoption aligned with professional obligations and firm priorities.",
			HowToExecute:  []string{"Form a small AI steering group", "Agree decision rights and budget", "Meet monthly to review requests"},
			Owner:         "Managing Partner",
			Timeline:      "30 days",
			SuccessMetric: "Steering group chartered and meeting monthly",
		},
		{
			Title:         "Adopt an acceptable-use policy",
			WhyItMatters:  "Attorneys need a clear line between approved and prohibited AI use on client work.",
			HowToExecute:  []string{"Draft the policy with risk counsel", "Cover confidentiality and supervision", "Collect acknowledgements from all staff"},
			Owner:         "General Counsel",
			Timeline:      "45 days",
			SuccessMetric: "Policy acknowledged by 100% of timekeepers",
		},
		{
			Title:         "Tie AI to business outcomes",
			WhyItMatters:  "Initiatives with measurable goals earn lasting partner support.",
			HowToExecute:  []string{"Pick two firm KPIs AI should move", "Capture a baseline today", "Report progress quarterly"},
			Owner:         "COO",
			Timeline:      "90 days",
			SuccessMetric: "Baseline and quarterly KPI report in place",
		},
	},
	assessment.Data: {
		{
			Title:         "Centralize matter documents",
			WhyItMatters:  "AI tools can only help with knowledge they can reach securely.",
			HowToExecute:  []string{"Identify documents outside the DMS", "Set a migration schedule", "Retire shadow file shares"},
			Owner:         "IT Director",
			Timeline:      "90 days",
			SuccessMetric: "90% of active matters stored in the DMS",
		},
		{
			Title:         "Classify sensitive data",
			WhyItMatters:  "Knowing where privileged data lives is the basis for safe AI access controls.",
			HowToExecute:  []string{"Define classification labels", "Apply labels to key repositories", "Review exceptions with risk"},
			Owner:         "Risk Manager",
			Timeline:      "60 days",
			SuccessMetric: "All repositories carry a classification label",
		},
		{
			Title:         "Curate a precedent library",
			WhyItMatters:  "Clean, tagged precedents give private AI high-quality material to draw from.",
			HowToExecute:  []string{"Select top templates per practice", "Tag by matter type and jurisdiction", "Assign an owner for upkeep"},
			Owner:         "Knowledge Manager",
			Timeline:      "90 days",
			SuccessMetric: "Top 50 precedents tagged and owned",
		},
	},
	assessment.Technology: {
		{
			Title:         "Harden identity and access",
			WhyItMatters:  "Strong authentication is the minimum bar before connecting AI to client data.",
			HowToExecute:  []string{"Enforce MFA everywhere", "Enable single sign-on for core tools", "Review privileged accounts"},
			Owner:         "IT Director",
			Timeline:      "30 days",
			SuccessMetric: "MFA coverage at 100%",
		},
		{
			Title:         "Adopt an AI vendor review",
			WhyItMatters:  "A consistent review protects client confidentiality when evaluating AI tools.",
			HowToExecute:  []string{"Create an AI security questionnaire", "Require data residency answers", "Score vendors before pilots"},
			Owner:         "CISO",
			Timeline:      "45 days",
			SuccessMetric: "Every AI vendor reviewed before use",
		},
		{
			Title:         "Prefer private deployments",
			WhyItMatters:  "Private environments keep client data out of shared model training.",
			HowToExecute:  []string{"Shortlist private AI options", "Validate isolation with the vendor", "Pilot with non-client data first"},
			Owner:         "IT Director",
			Timeline:      "90 days",
			SuccessMetric: "Private AI workspace available for pilots",
		},
	},
	assessment.Team: {
		{
			Title:         "Launch AI fundamentals training",
			WhyItMatters:  "Competence with AI is becoming part of an attorney's duty of care.",
			HowToExecute:  []string{"Run a one-hour firm-wide session", "Cover ethics and verification", "Record it for new joiners"},
			Owner:         "Professional Development",
			Timeline:      "30 days",
			SuccessMetric: "80% of attorneys trained",
		},
		{
			Title:         "Build a champion network",
			WhyItMatters:  "Peers drive adoption faster than top-down mandates.",
			HowToExecute:  []string{"Recruit a champion per practice group", "Give them early tool access", "Share wins in practice meetings"},
			Owner:         "Innovation Lead",
			Timeline:      "60 days",
			SuccessMetric: "One active champion per practice group",
		},
		{
			Title:         "Make room for innovation",
			WhyItMatters:  "Adoption stalls when experimentation competes with billable targets.",
			HowToExecute:  []string{"Allow innovation hours credit", "Set quarterly innovation goals", "Recognize contributions in reviews"},
			Owner:         "Managing Partner",
			Timeline:      "90 days",
			SuccessMetric: "Innovation credit policy adopted",
		},
	},
	assessment.Implementation: {
		{
			Title:         "Run a focused pilot",
			WhyItMatters:  "A small, measured pilot proves value without putting client work at risk.",
			HowToExecute:  []string{"Pick one internal workflow", "Limit to a volunteer group", "Run for four to six weeks"},
			Owner:         "Innovation Lead",
			Timeline:      "45 days",
			SuccessMetric: "Pilot completed with documented results",
		},
		{
			Title:         "Measure adoption and savings",
			WhyItMatters:  "Data on time saved turns skeptics into sponsors.",
			HowToExecute:  []string{"Track usage weekly", "Survey pilot users", "Compare cycle times to baseline"},
			Owner:         "COO",
			Timeline:      "60 days",
			SuccessMetric: "Monthly adoption report published",
		},
		{
			Title:         "Plan the firm-wide rollout",
			WhyItMatters:  "Structured change management keeps momentum after a successful pilot.",
			HowToExecute:  []string{"Write a rollout and support plan", "Prepare client communication", "Budget for the next use cases"},
			Owner:         "Steering Group",
			Timeline:      "90 days",
			SuccessMetric: "Rollout plan approved by leadership",
		},
	},
}

var whatThisMeans = map[assessment.Level]string{
	assessment.LevelEmerging:   "Your firm is early in its %s journey. Foundational steps now will make later AI adoption safer and faster.",
	assessment.LevelDeveloping: "Your firm has a working base in %s. Closing the remaining gaps will let you scale AI with confidence.",
	assessment.LevelMature:     "Your firm is strong in %s. Focus on refining what works and sharing it across practice groups.",
}

// DefaultPlan is the generic 30/60/90 plan used when none is supplied.
func DefaultPlan() Plan {
	return Plan{
		Day30: []string{
			"Appoint an AI sponsor and steering group",
			"Publish an interim acceptable-use policy",
			"Run AI fundamentals training for attorneys and staff",
		},
		Day60: []string{
			"Select and launch one low-risk pilot",
			"Complete security review of shortlisted AI vendors",
			"Classify sensitive data repositories",
		},
		Day90: []string{
			"Report pilot results against baseline metrics",
			"Approve a firm-wide rollout plan",
			"Set the AI budget for the next twelve months",
		},
	}
}

// Fallback returns a complete recommendation set that needs no LLM.
func Fallback(in Input) Recommendations {
	th := in.Thresholds
	overall := averageScore(in.Scores)
	out := Recommendations{
		Overall: Overall{
			Level: assessment.LevelFor(overall, th),
			Score: overall,
			TopPriorities: []string{
				"Establish clear AI governance and an acceptable-use policy",
				"Organize and classify firm data before connecting AI tools",
				"Start with a measured pilot in a low-risk workflow",
			},
		},
		Plan: DefaultPlan(),
		CTA:  defaultCTA(in),
	}
	firm := in.FirmName
	if firm == "" {
		firm = "Your firm"
	}
	out.Overall.Summary = fmt.Sprintf("%s scored %.1f out of 5 overall, placing it in the %s stage of AI readiness. The priorities below focus on secure, privacy-first adoption.", firm, overall, out.Overall.Level)

	for _, id := range assessment.CategoryIDs() {
		out.Categories = append(out.Categories, fallbackCategory(id, in.Scores[id], th))
	}
	return out
}

func fallbackCategory(id assessment.CategoryID, score float64, th assessment.Thresholds) CategoryRecommendation {
	level := assessment.LevelFor(score, th)
	name := string(id)
	if c, ok := assessment.CategoryByID(id); ok {
		name = c.Name
	}
	recs := make([]Recommendation, len(fallbackRecommendations[id]))
	for i, r := range fallbackRecommendations[id] {
		r.HowToExecute = append([]string(nil), r.HowToExecute...)
		recs[i] = r
	}
	return CategoryRecommendation{
		Key:             id,
		Score:           score,
		Level:           level,
		WhatThisMeans:   fmt.Sprintf(whatThisMeans[level], name),
		QuickWins:       append([]string(nil), fallbackQuickWins[id]...),
		Recommendations: recs,
	}
}

func defaultCTA(in Input) CTA {
	cta := CTA{Copy: in.CTA.Copy, LinkText: in.CTA.LinkText, LinkHref: in.CTA.LinkHref}
	if cta.LinkHref == "" {
		cta.LinkHref = in.Brand.BookingURL
	}
	if cta.Copy == "" {
		cta.Copy = "Book a strategy session to turn these recommendations into a roadmap for your firm."
	}
	if cta.LinkText == "" {
		cta.LinkText = "Schedule a consultation"
	}
	return cta
}

func averageScore(scores map[assessment.CategoryID]float64) float64 {
	ids := assessment.CategoryIDs()
	sum := 0.0
	for _, id := range ids {
		sum += scores[id]
	}
	return math.Round(sum/float64(len(ids))*10) / 10
}
