package assessment

type band int

const (
	bandLow band = iota
	bandMid
	bandHigh
)

func bandFor(pct float64) band {
	switch {
	case pct < 40:
		return bandLow
	case pct < 70:
		return bandMid
	default:
		return bandHigh
	}
}

var staticRecommendations = map[CategoryID][3][]string{
	Strategy: {
		bandLow: {
			"Name an executive sponsor accountable for AI decisions.",
			"Draft a one-page acceptable-use policy for generative AI on client matters.",
		},
		bandMid: {
			"Tie each AI initiative to a practice-level metric such as turnaround time.",
			"Review the AI policy with your risk committee every six months.",
		},
		bandHigh: {
			"Publish an AI roadmap that practice groups can plan around.",
			"Share your AI governance approach with key clients as a differentiator.",
		},
	},
	Data: {
		bandLow: {
			"Move active matter documents into a single document management system.",
			"Identify where privileged and confidential data lives today.",
		},
		bandMid: {
			"Tag your top precedents and templates so they can be retrieved reliably.",
			"Confirm ethical walls and retention rules are enforced in every repository.",
		},
		bandHigh: {
			"Build a curated knowledge set that a private AI model can safely index.",
			"Automate data-quality checks on matter intake.",
		},
	},
	Technology: {
		bandLow: {
			"Turn on multi-factor authentication for every system holding client data.",
			"List the systems an AI tool would need to connect to.",
		},
		bandMid: {
			"Adopt a vendor security questionnaire specific to AI tools.",
			"Prefer tools that keep data inside a private tenant.",
		},
		bandHigh: {
			"Centralize access logging for AI tools alongside existing systems.",
			"Pilot integrations between your DMS and a private AI workspace.",
		},
	},
	Team: {
		bandLow: {
			"Run a one-hour AI fundamentals session covering risks and ethics.",
			"Find two or three curious attorneys to act as early champions.",
		},
		bandMid: {
			"Give champions protected time to build and share prompt playbooks.",
			"Add AI competence to associate development plans.",
		},
		bandHigh: {
			"Create a practice-group AI community that meets monthly.",
			"Recognize innovation work in reviews and billable-hour credit.",
		},
	},
	Implementation: {
		bandLow: {
			"Pick one low-risk workflow, such as internal research memos, for a pilot.",
			"Define what success looks like before the pilot starts.",
		},
		bandMid: {
			"Measure time saved and adoption for every pilot and report monthly.",
			"Prepare client-facing language explaining how AI supports their matters.",
		},
		bandHigh: {
			"Scale proven pilots firm-wide with a formal change plan.",
			"Reserve budget for the next wave of AI use cases.",
		},
	},
}

// StaticRecommendations returns canned guidance for a category by percentage band.
func StaticRecommendations(id CategoryID, pct float64) []string {
	recs, ok := staticRecommendations[id]
	if !ok {
		return []string{}
	}
	src := recs[bandFor(pct)]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
