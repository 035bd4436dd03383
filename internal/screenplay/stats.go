package screenplay

// Summary is a compact accounting of a parsed document, used by the CLI
// table view and job status reporting.
type Summary struct {
	Scenes         int `json:"scenes"`
	DialogueBlocks int `json:"dialogue_blocks"`
	ActionLines    int `json:"action_lines"`
	Transitions    int `json:"transitions"`
	Characters     int `json:"characters"`
}

func Summarize(doc *ScriptDocument) Summary {
	s := Summary{
		Scenes:     len(doc.Scenes),
		Characters: len(doc.Characters),
	}
	for _, sc := range doc.Scenes {
		s.DialogueBlocks += len(sc.Dialogue)
		s.ActionLines += len(sc.Action)
		s.Transitions += len(sc.Transitions)
	}
	return s
}
