package screenplay

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// untitledHeading names the recovery scene opened for content that
// appears before any heading.
const untitledHeading = "UNTITLED SCENE"

// maxCueLen is the longest line (in runes) still considered a character cue.
const maxCueLen = 40

// titleScanWindow bounds the title/author heuristic to the top of the document.
const titleScanWindow = 25

var (
	sceneHeadingRe = regexp.MustCompile(`^(?i:INT\.?/EXT|INT|EXT|I[./-]E)[.\s]`)
	sceneNumberRe  = regexp.MustCompile(`^(?i:SCENE)\s+\d+`)
	bylineRe       = regexp.MustCompile(`^by\s+(.+)`)
)

// localizedSceneMarker opens a scene in Hindi-language scripts that use
// "दृश्य" instead of INT/EXT headings.
const localizedSceneMarker = "दृश्य"

var transitionPhrases = []string{
	"CUT TO:",
	"FADE IN:",
	"FADE OUT:",
	"SMASH CUT:",
	"MATCH CUT:",
	"DISSOLVE TO:",
	"BACK TO:",
}

// Parse runs a single left-to-right scan over the raw text and builds a
// ScriptDocument. It is best-effort and never fails: text with no scene
// heading at all lands in a single "UNTITLED SCENE".
func Parse(text string) *ScriptDocument {
	lines := strings.Split(strings.ReplaceAll(text, "\t", "  "), "\n")

	st := &parseState{
		doc:  &ScriptDocument{},
		seen: make(map[string]struct{}),
	}
	st.scanTitle(lines)

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			// Blank lines only terminate dialogue blocks; block
			// consumption below already stopped at them.
		case isSceneHeading(line):
			st.openScene(line)
		case isTransition(line):
			sc := st.ensureScene()
			sc.Transitions = append(sc.Transitions, line)
		case isCharacterCue(line):
			sc := st.ensureScene()
			st.registerCharacter(line)
			block := DialogueBlock{Character: line, Lines: []string{}}
			// Everything up to the next blank line, cue, or heading
			// belongs to this block, transitions included.
			for i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if next == "" || isSceneHeading(next) || isCharacterCue(next) {
					break
				}
				block.Lines = append(block.Lines, next)
				i++
			}
			sc.Dialogue = append(sc.Dialogue, block)
		default:
			sc := st.ensureScene()
			sc.Action = append(sc.Action, line)
		}
	}

	st.finish()
	return st.doc
}

// parseState is the accumulator threaded through the scan: the document
// built so far, the open scene, and the character registry.
type parseState struct {
	doc     *ScriptDocument
	current *Scene
	nextID  int
	seen    map[string]struct{}
}

func (st *parseState) openScene(heading string) {
	st.closeScene()
	st.nextID++
	st.current = &Scene{
		ID:          st.nextID,
		Heading:     heading,
		Action:      []string{},
		Dialogue:    []DialogueBlock{},
		Transitions: []string{},
	}
}

func (st *parseState) closeScene() {
	if st.current != nil {
		st.doc.Scenes = append(st.doc.Scenes, *st.current)
		st.current = nil
	}
}

// ensureScene returns the open scene, opening the untitled recovery
// scene when content arrives before any heading.
func (st *parseState) ensureScene() *Scene {
	if st.current == nil {
		st.openScene(untitledHeading)
	}
	return st.current
}

func (st *parseState) registerCharacter(name string) {
	st.seen[name] = struct{}{}
}

func (st *parseState) finish() {
	st.closeScene()
	if len(st.doc.Scenes) == 0 {
		st.openScene(untitledHeading)
		st.closeScene()
	}

	st.doc.Characters = make([]string, 0, len(st.seen))
	for name := range st.seen {
		st.doc.Characters = append(st.doc.Characters, name)
	}
	sort.Strings(st.doc.Characters)
}

// scanTitle applies the title/author heuristic to the first lines of the
// document. The first line of plausible title length that is not a scene
// heading wins and is never reconsidered; the last "by ..." line wins.
func (st *parseState) scanTitle(lines []string) {
	limit := len(lines)
	if limit > titleScanWindow {
		limit = titleScanWindow
	}
	for _, raw := range lines[:limit] {
		line := strings.TrimSpace(raw)
		if m := bylineRe.FindStringSubmatch(line); m != nil {
			st.doc.Authors = []string{strings.TrimSpace(m[1])}
		}
		if st.doc.Title == "" {
			n := utf8.RuneCountInString(line)
			if n >= 3 && n < 80 && !isSceneHeading(line) {
				st.doc.Title = line
			}
		}
	}
}

func isSceneHeading(line string) bool {
	if sceneHeadingRe.MatchString(line) || sceneNumberRe.MatchString(line) {
		return true
	}
	return strings.HasPrefix(line, localizedSceneMarker)
}

// isTransition reports whether the line contains one of the standard
// transition phrases anywhere within it.
func isTransition(line string) bool {
	upper := strings.ToUpper(line)
	for _, phrase := range transitionPhrases {
		if strings.Contains(upper, phrase) {
			return true
		}
	}
	return false
}

// isCharacterCue applies the cue heuristic: a short line whose letters
// are all upper-case, with at least one of them. Lines with no letters
// at all never qualify, nor do headings or transitions.
func isCharacterCue(line string) bool {
	if line == "" || utf8.RuneCountInString(line) > maxCueLen {
		return false
	}
	if isSceneHeading(line) || isTransition(line) {
		return false
	}
	hasUpper := false
	for _, r := range line {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
