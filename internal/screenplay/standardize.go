package screenplay

// Standardize flattens a parsed document into cross-scene lists. Every
// dialogue block, action line, and transition appears exactly once,
// tagged with its owning scene id, in scene order. The character
// registry is carried over from parsing, not recomputed.
func Standardize(doc *ScriptDocument) *Standardized {
	std := &Standardized{
		Dialogue:    []TaggedDialogue{},
		Action:      []TaggedLine{},
		Transitions: []TaggedLine{},
		Characters:  append([]string{}, doc.Characters...),
	}
	for _, sc := range doc.Scenes {
		for _, d := range sc.Dialogue {
			std.Dialogue = append(std.Dialogue, TaggedDialogue{
				SceneID:   sc.ID,
				Character: d.Character,
				Lines:     d.Lines,
			})
		}
		for _, line := range sc.Action {
			std.Action = append(std.Action, TaggedLine{SceneID: sc.ID, Text: line})
		}
		for _, t := range sc.Transitions {
			std.Transitions = append(std.Transitions, TaggedLine{SceneID: sc.ID, Text: t})
		}
	}
	return std
}
