package play

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"weaver/internal/game"
)

// RenderSnapshot draws the error notice, the segment on screen and its
// choices.
func RenderSnapshot(w io.Writer, st Styles, snap game.Snapshot) {
	if snap.Game == nil {
		fmt.Fprintln(w, st.Muted.Render("No game loaded."))
		return
	}
	if snap.Loading {
		fmt.Fprintln(w, st.Loading.Render("The chronicle is being written..."))
		return
	}

	header := fmt.Sprintf("%s | %s | turn %d", snap.Game.Character.Name, snap.Game.Era, snap.Game.TurnCount)
	fmt.Fprintln(w, st.Title.Render(header))

	if snap.Error != "" {
		fmt.Fprintln(w, st.Error.Render("The chronicler faltered: "+snap.Error))
		fmt.Fprintln(w, st.Muted.Render("Type r to try the same choice again, or pick another."))
	}

	segment := snap.Segment()
	if segment == nil {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, st.Narrative.Render(segment.Text))
	fmt.Fprintln(w)

	for i, choice := range segment.Choices {
		fmt.Fprintln(w, st.Choice.Render(fmt.Sprintf("%s %s", st.Key.Render(fmt.Sprintf("%d.", i+1)), choice.Text)))
	}
	if segment.CustomChoiceEnabled {
		fmt.Fprintln(w, st.Choice.Render(st.Key.Render("c")+" Describe your own action"))
	}
}

func renderMemories(w io.Writer, st Styles, snap game.Snapshot) {
	if snap.Game == nil || len(snap.Game.Memories) == 0 {
		fmt.Fprintln(w, st.Muted.Render("No memories yet."))
		return
	}
	fmt.Fprintln(w, st.Title.Render("Memories"))
	for _, m := range snap.Game.Memories {
		line := m.Title
		if m.Description != "" {
			line += ": " + m.Description
		}
		fmt.Fprintln(w, st.Choice.Render("- "+line))
	}
}

func renderCharacter(w io.Writer, st Styles, snap game.Snapshot) {
	if snap.Game == nil {
		fmt.Fprintln(w, st.Muted.Render("No game loaded."))
		return
	}
	c := snap.Game.Character
	fmt.Fprintln(w, st.Title.Render(c.Name))
	if c.Backstory != "" {
		fmt.Fprintln(w, st.Narrative.Render(c.Backstory))
	}
	fmt.Fprintf(w, "Influence %d  Knowledge %d  Resources %d  Reputation %d\n",
		c.Stats.Influence, c.Stats.Knowledge, c.Stats.Resources, c.Stats.Reputation)
	if len(c.Inventory) > 0 {
		fmt.Fprintln(w, "Carrying: "+strings.Join(c.Inventory, ", "))
	}

	keys := make([]string, 0, len(snap.Game.WorldSystems))
	for k := range snap.Game.WorldSystems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintln(w, st.Muted.Render(fmt.Sprintf("%s: %s", k, snap.Game.WorldSystems[k])))
	}
}

// RenderGame prints a full overview of a saved game.
func RenderGame(w io.Writer, st Styles, snap game.Snapshot) {
	RenderSnapshot(w, st, snap)
	if snap.Game == nil {
		return
	}
	fmt.Fprintln(w)
	renderCharacter(w, st, snap)
	fmt.Fprintln(w)
	renderMemories(w, st, snap)
}
