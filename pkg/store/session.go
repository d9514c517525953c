package store

// Turn is one entry in a session's append-only conversation log. Turns are
// never mutated or removed; insertion order is the only ordering guarantee.
type Turn struct {
	Sender           string   `json:"sender"` // "user" | "system"
	Text             string   `json:"text"`
	MentionsSemantic bool     `json:"mentions_semantic"`
	MentionsRaw      bool     `json:"mentions_raw"`
	RefineType       string   `json:"refine_type"` // "semantic" | "raw" | "both" | "none"
	Results          []string `json:"results,omitempty"`
}

// SearchSpace holds the working set of candidate dataset names. Current is
// the sole filter boundary for the next turn's queries; PreviousSnapshot is
// the set in effect before the latest refine, enabling single-level reset.
type SearchSpace struct {
	Current          []string `json:"current"`
	PreviousSnapshot []string `json:"previous_snapshot"`
}

// Session is the per-conversation state for the refinement engine.
type Session struct {
	ID    string      `json:"id"`
	Turns []Turn      `json:"turns"`
	Space SearchSpace `json:"space"`

	LastQuery string `json:"last_query"`
}

// Started reports whether the session has already served its first search
// turn. The first turn runs unrestricted against the whole corpus.
func (s *Session) Started() bool {
	return len(s.Turns) > 0
}

// SemanticQueryTexts concatenation input: the texts of all user turns that
// mentioned semantic fields, in turn order.
func (s *Session) SemanticQueryTexts() []string {
	var texts []string
	for _, t := range s.Turns {
		if t.Sender == "user" && t.MentionsSemantic {
			texts = append(texts, t.Text)
		}
	}
	return texts
}

// Clone returns a deep copy. Turn handling mutates a clone and persists it
// in one step so a failed turn never leaves a half-updated session behind.
func (s *Session) Clone() *Session {
	c := &Session{
		ID:        s.ID,
		LastQuery: s.LastQuery,
	}
	c.Turns = make([]Turn, len(s.Turns))
	copy(c.Turns, s.Turns)
	c.Space.Current = append([]string(nil), s.Space.Current...)
	c.Space.PreviousSnapshot = append([]string(nil), s.Space.PreviousSnapshot...)
	return c
}
