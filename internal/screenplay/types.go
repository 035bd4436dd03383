package screenplay

// ScriptDocument is the root of a parsed screenplay.
type ScriptDocument struct {
	Title      string   `json:"title,omitempty"`   // From the title heuristic (may be empty)
	Authors    []string `json:"authors,omitempty"` // From a "by ..." line (may be empty)
	Scenes     []Scene  `json:"scenes"`            // Document order
	Characters []string `json:"characters"`        // Registry of cue names, sorted
	Warnings   []string `json:"warnings,omitempty"`
}

// Scene is one contiguous screenplay unit starting at a heading line.
type Scene struct {
	ID          int             `json:"id"` // 1-based, unique within the document
	Heading     string          `json:"heading"`
	Action      []string        `json:"action"`
	Dialogue    []DialogueBlock `json:"dialogue"`
	Transitions []string        `json:"transitions"`
}

// DialogueBlock is one character cue plus the lines spoken under it.
type DialogueBlock struct {
	Character string   `json:"character"`
	Lines     []string `json:"lines"`
}

// Standardized is a read-only flattening of a ScriptDocument: every
// dialogue block, action line, and transition in one global list each,
// tagged with the owning scene id.
type Standardized struct {
	Dialogue    []TaggedDialogue `json:"dialogue"`
	Action      []TaggedLine     `json:"action"`
	Transitions []TaggedLine     `json:"transitions"`
	Characters  []string         `json:"characters"`
}

// TaggedDialogue is a dialogue block annotated with its source scene.
type TaggedDialogue struct {
	SceneID   int      `json:"scene_id"`
	Character string   `json:"character"`
	Lines     []string `json:"lines"`
}

// TaggedLine is a single action or transition line annotated with its
// source scene.
type TaggedLine struct {
	SceneID int    `json:"scene_id"`
	Text    string `json:"text"`
}
