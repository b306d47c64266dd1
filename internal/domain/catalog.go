package domain

// ReferenceCatalogID identifies the built-in questionnaire.
const ReferenceCatalogID = "ai-litmus"

// ReferenceCatalog is the built-in AI-readiness questionnaire; deployments
// with a catalogs table serve their own copy from Postgres instead.
func ReferenceCatalog() Catalog {
	return Catalog{
		ID: ReferenceCatalogID,
		Questions: []Question{
			{
				ID:       "founder-freedom",
				Prompt:   "1. Founder Freedom Check",
				Subtitle: "How involved is the founder in day-to-day operations?",
				Options: []Option{
					{Label: "Fully hands-on, running the show", Value: 0},
					{Label: "Mostly involved, but some delegation", Value: 1},
					{Label: "Rarely involved – they lead, not manage", Value: 2},
				},
			},
			{
				ID:       "decision-making",
				Prompt:   "2. Decision-Making",
				Subtitle: "How are big decisions made?",
				Options: []Option{
					{Label: "Mostly gut feel or habit", Value: 0},
					{Label: "Based on experience + some data", Value: 1},
					{Label: "Consistently data-backed, and AI helps spot patterns", Value: 2},
				},
			},
			{
				ID:       "automation-level",
				Prompt:   "3. Automation Level",
				Subtitle: "Could 30% of ops, finance, or service be automated tomorrow?",
				Options: []Option{
					{Label: "No chance – we're very manual", Value: 0},
					{Label: "Maybe – we've started testing AI tools", Value: 1},
					{Label: "Absolutely – we already do this", Value: 2},
				},
			},
			{
				ID:       "sops-training",
				Prompt:   "4. SOPs & Training",
				Subtitle: "Who updates SOPs and trains new hires?",
				Options: []Option{
					{Label: "One of the team – when they remember", Value: 0},
					{Label: "We've got written docs, but they're outdated", Value: 1},
					{Label: "It's automated. New staff get onboarded by bots", Value: 2},
				},
			},
			{
				ID:       "customer-interactions",
				Prompt:   "5. Customer Interactions",
				Subtitle: "How smart is your customer service?",
				Options: []Option{
					{Label: "All human. All the time.", Value: 0},
					{Label: "Hybrid – we use AI for FAQs or routing", Value: 1},
					{Label: "Mostly AI-led, and it learns constantly", Value: 2},
				},
			},
			{
				ID:       "ai-awareness",
				Prompt:   "6. AI Awareness",
				Subtitle: "Do you know which areas of your business AI could improve today?",
				Options: []Option{
					{Label: "Not really", Value: 0},
					{Label: "A few rough ideas", Value: 1},
					{Label: "Yes – we've mapped it out and started actioning it", Value: 2},
				},
			},
			{
				ID:       "exit-alignment",
				Prompt:   "7. Exit Alignment",
				Subtitle: "Is there an AI strategy tied to increasing exit value?",
				Options: []Option{
					{Label: "No – we're just trying to survive the week", Value: 0},
					{Label: "It's loosely part of the growth plan", Value: 1},
					{Label: "Yes – it's embedded in our value creation strategy", Value: 2},
				},
			},
		},
	}
}
