package domain

// DefaultTiers is the canonical classification table for the reference
// catalog (max score 14). Ordered by descending MinScore; classification
// picks the first tier whose MinScore the score reaches, so the table is
// exhaustive over 0..max as long as the last entry starts at 0.
var DefaultTiers = []Tier{
	{
		MinScore:    13,
		Label:       "AI-Savvy",
		Subtitle:    "You're scaling with a brain and a backbone. Nice.",
		Description: "Your operations are already compounding with AI. Let's sharpen the edge.",
		Color:       "#00B2A9",
		Emoji:       "🚀",
		Actions: []string{
			"Pressure-test your AI stack against your exit timeline",
			"Document the automation playbook so it survives key-person risk",
			"Benchmark margins against AI-native competitors",
		},
	},
	{
		MinScore:    9,
		Label:       "Scaling Smart",
		Subtitle:    "Strong foundations — a few gaps between you and the top tier.",
		Description: "The habits are there; the coverage isn't complete yet.",
		Color:       "#0A2342",
		Emoji:       "⚡",
		Actions: []string{
			"Map the two or three manual workflows still eating founder time",
			"Extend AI from pilots into the revenue-critical path",
			"Tie automation wins to the valuation story",
		},
	},
	{
		MinScore:    5,
		Label:       "Mid-Pack",
		Subtitle:    "You've got potential, but margin and value are being left on the table.",
		Description: "We can help fix that.",
		Color:       "#FFA500",
		Emoji:       "🛠️",
		Actions: []string{
			"Pick one ops bottleneck and automate it end to end",
			"Get SOPs out of people's heads and into living docs",
			"Start measuring where decisions rely on gut feel",
		},
	},
	{
		MinScore:    0,
		Label:       "Ops Dinosaur",
		Subtitle:    "Your business is running on caffeine and chaos.",
		Description: "The good news? You know now.",
		Color:       "#FF6B6B",
		Emoji:       "🦕",
		Actions: []string{
			"Free the founder from one recurring operational task this month",
			"Write down the three processes only one person knows",
			"Trial an AI assistant on your most repetitive customer question",
		},
	},
}
