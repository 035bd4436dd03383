package screenplay

import "testing"

const fixtureScript = `THE LAST LOCAL
by R. Iyer

INT. RAILWAY STATION - DAWN

Steam curls over an empty platform.

STATION MASTER
Last train left an hour ago.
You missed it.

FADE OUT:

EXT. PLATFORM EDGE - DAWN

A single suitcase stands alone.

PORTER
Somebody always forgets something.
`

func TestStandardize_CountsMatchSceneIteration(t *testing.T) {
	doc := Parse(fixtureScript)
	std := Standardize(doc)

	var wantDialogue, wantAction, wantTransitions int
	for _, sc := range doc.Scenes {
		wantDialogue += len(sc.Dialogue)
		wantAction += len(sc.Action)
		wantTransitions += len(sc.Transitions)
	}

	if len(std.Dialogue) != wantDialogue {
		t.Errorf("expected %d dialogue entries, got %d", wantDialogue, len(std.Dialogue))
	}
	if len(std.Action) != wantAction {
		t.Errorf("expected %d action entries, got %d", wantAction, len(std.Action))
	}
	if len(std.Transitions) != wantTransitions {
		t.Errorf("expected %d transition entries, got %d", wantTransitions, len(std.Transitions))
	}
	if len(std.Characters) != len(doc.Characters) {
		t.Errorf("expected %d characters, got %d", len(doc.Characters), len(std.Characters))
	}
}

func TestStandardize_TagsCarrySceneIDs(t *testing.T) {
	doc := Parse(fixtureScript)
	std := Standardize(doc)

	ids := make(map[int]bool)
	for _, sc := range doc.Scenes {
		ids[sc.ID] = true
	}
	for _, d := range std.Dialogue {
		if !ids[d.SceneID] {
			t.Errorf("dialogue tagged with unknown scene id %d", d.SceneID)
		}
	}
	for _, a := range std.Action {
		if !ids[a.SceneID] {
			t.Errorf("action tagged with unknown scene id %d", a.SceneID)
		}
	}
	for _, tr := range std.Transitions {
		if !ids[tr.SceneID] {
			t.Errorf("transition tagged with unknown scene id %d", tr.SceneID)
		}
	}
}

func TestStandardize_PreservesSceneOrder(t *testing.T) {
	doc := Parse(fixtureScript)
	std := Standardize(doc)

	last := 0
	for _, d := range std.Dialogue {
		if d.SceneID < last {
			t.Fatalf("dialogue out of scene order: id %d after %d", d.SceneID, last)
		}
		last = d.SceneID
	}
}

func TestParse_TransitionInsideDialogueRunStaysDialogue(t *testing.T) {
	// Only blanks, cues, and headings terminate a dialogue block, so a
	// transition line glued to dialogue is swallowed by the block.
	doc := Parse("INT. HALL - DAY\nMC\nAnd now...\nCUT TO:\n")
	sc := doc.Scenes[0]
	if len(sc.Transitions) != 0 {
		t.Errorf("expected no scene-level transitions, got %v", sc.Transitions)
	}
	if len(sc.Dialogue) != 1 || len(sc.Dialogue[0].Lines) != 2 {
		t.Fatalf("expected one block with 2 lines, got %v", sc.Dialogue)
	}
	if sc.Dialogue[0].Lines[1] != "CUT TO:" {
		t.Errorf("expected CUT TO: swallowed as dialogue, got %v", sc.Dialogue[0].Lines)
	}
}
