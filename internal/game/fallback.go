package game

import "fmt"

// FallbackOpening is shown when the opening segment could not be generated.
func FallbackOpening(characterName, eraLabel string) Segment {
	if eraLabel == "" {
		eraLabel = "an age long past"
	}
	return Segment{
		ID: "fallback-opening",
		Text: fmt.Sprintf("The chronicle of %s begins in %s. Dust hangs in the morning light as word spreads "+
			"through the streets: powerful figures are gathering, old alliances are fraying, and every "+
			"choice made today will echo for years. You stand at the edge of events, aware that the "+
			"next step you take will decide whether history remembers your name.", characterName, eraLabel),
		Choices: []Choice{
			{ID: "1", Text: "Seek out the people who hold power in this place"},
			{ID: "2", Text: "Gather rumours in the market before acting"},
			{ID: "3", Text: "Withdraw and study the situation from a distance"},
		},
		CustomChoiceEnabled: true,
	}
}

// FallbackSegment is shown in place of the current segment after a failed
// turn, so the player never faces an empty screen.
func FallbackSegment() Segment {
	return Segment{
		ID: "fallback-turn",
		Text: "The threads of history tangle for a moment. Voices fade, the scene blurs, and you are left " +
			"with only your own resolve. The world waits, patient and uncertain, for your next move. " +
			"Perhaps a different approach will reveal what lies ahead.",
		Choices: []Choice{
			{ID: "1", Text: "Press on with your current plan"},
			{ID: "2", Text: "Take a moment to reflect on what you have learned"},
			{ID: "3", Text: "Look for an unexpected ally"},
		},
		CustomChoiceEnabled: true,
	}
}

// FallbackBackstory is used when backstory generation fails.
func FallbackBackstory(characterName, eraLabel string) string {
	return fmt.Sprintf("%s was raised in %s, learning early that ambition and caution must walk together.", characterName, eraLabel)
}
