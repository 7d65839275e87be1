package assessment

var categories = []Category{
	{ID: Strategy, Name: "Strategy & Leadership", Description: "Executive sponsorship, AI vision and governance for the practice.", Color: "#1E3A8A"},
	{ID: Data, Name: "Data & Knowledge", Description: "How well matter data, precedents and documents are organized and protected.", Color: "#0EA5E9"},
	{ID: Technology, Name: "Technology & Security", Description: "Infrastructure, integrations and the security posture needed for private AI.", Color: "#10B981"},
	{ID: Team, Name: "People & Skills", Description: "Attorney and staff AI literacy, training and appetite for new tools.", Color: "#F59E0B"},
	{ID: Implementation, Name: "Change & Implementation", Description: "Ability to pilot, measure and roll out AI across practice groups.", Color: "#8B5CF6"},
}

var questions = []Question{
	{ID: "strategy_1", Category: Strategy, Weight: 1, Text: "Firm leadership has articulated how AI supports our client service strategy."},
	{ID: "strategy_2", Category: Strategy, Weight: 1, Text: "A named partner or committee owns AI decisions and budget."},
	{ID: "strategy_3", Category: Strategy, Weight: 1, Text: "We have a written policy on acceptable AI use for client matters."},
	{ID: "strategy_4", Category: Strategy, Weight: 1, Text: "AI initiatives are tied to measurable business outcomes such as realization or turnaround time."},
	{ID: "strategy_5", Category: Strategy, Weight: 1, Text: "We regularly review how competitors and clients are adopting AI."},

	{ID: "data_1", Category: Data, Weight: 1, Text: "Our documents and matter files live in a central document management system."},
	{ID: "data_2", Category: Data, Weight: 1, Text: "Precedents, templates and work product are tagged and easy to find."},
	{ID: "data_3", Category: Data, Weight: 1, Text: "We know which data is privileged or confidential and where it is stored."},
	{ID: "data_4", Category: Data, Weight: 1, Text: "Retention and ethical-wall policies are enforced in our systems."},
	{ID: "data_5", Category: Data, Weight: 1, Text: "We could export clean, structured data from our practice management system today."},

	{ID: "technology_1", Category: Technology, Weight: 1, Text: "Our core systems are cloud-based or have modern APIs."},
	{ID: "technology_2", Category: Technology, Weight: 1, Text: "We have single sign-on and multi-factor authentication across tools."},
	{ID: "technology_3", Category: Technology, Weight: 1, Text: "IT or a trusted vendor can evaluate the security of AI tools."},
	{ID: "technology_4", Category: Technology, Weight: 1, Text: "We can deploy tools that keep client data within a private environment."},
	{ID: "technology_5", Category: Technology, Weight: 1, Text: "Our systems log access to sensitive client information."},

	{ID: "team_1", Category: Team, Weight: 1, Text: "Attorneys are comfortable experimenting with new technology."},
	{ID: "team_2", Category: Team, Weight: 1, Text: "Staff have received training on generative AI risks and benefits."},
	{ID: "team_3", Category: Team, Weight: 1, Text: "We have internal champions who help colleagues adopt new tools."},
	{ID: "team_4", Category: Team, Weight: 1, Text: "Associates have time set aside for innovation work."},
	{ID: "team_5", Category: Team, Weight: 1, Text: "Our team understands professional-responsibility duties that apply to AI use."},

	{ID: "implementation_1", Category: Implementation, Weight: 1, Text: "We have successfully rolled out a new technology in the past two years."},
	{ID: "implementation_2", Category: Implementation, Weight: 1, Text: "New tools are piloted with a small group before firm-wide launch."},
	{ID: "implementation_3", Category: Implementation, Weight: 1, Text: "We measure adoption and time savings after rolling out a tool."},
	{ID: "implementation_4", Category: Implementation, Weight: 1, Text: "Clients are informed about how we use technology on their matters."},
	{ID: "implementation_5", Category: Implementation, Weight: 1, Text: "We have budget set aside for AI pilots in the next twelve months."},
}

var (
	questionIndex = map[string]Question{}
	categoryIndex = map[CategoryID]Category{}
)

func init() {
	for _, q := range questions {
		questionIndex[q.ID] = q
	}
	for _, c := range categories {
		categoryIndex[c.ID] = c
	}
}

// Categories returns the five categories in canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

func QuestionByID(id string) (Question, bool) {
	q, ok := questionIndex[id]
	return q, ok
}

func CategoryByID(id CategoryID) (Category, bool) {
	c, ok := categoryIndex[id]
	return c, ok
}

// CategoryIDs returns the canonical ordering used for positional backfill.
func CategoryIDs() []CategoryID {
	ids := make([]CategoryID, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return ids
}
