package model

// Schema types mirror the questionnaire definition served by the backend.
// A Questionnaire is read-only once fetched: the engine never mutates it,
// so one compiled instance can back any number of concurrent sessions.

type Questionnaire struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Editable bool   `json:"editable"`
	Steps    []Step `json:"steps"`

	fields map[string]*Field
}

type Step struct {
	ID                 string          `json:"id"`
	Order              int             `json:"order"`
	Label              string          `json:"label"`
	TriggeredByScore   int             `json:"triggered_by_score"`
	TriggeredByOptions []OptionTrigger `json:"triggered_by_options"`
	Children           []Field         `json:"children"`

	Trigger Trigger `json:"-"`
}

// Field is recursive: fieldgroups carry their member fields in Children.
// A multi-entry field holds an ordered sequence of answer instances
// instead of a single one.
type Field struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	Label              string          `json:"label"`
	Order              int             `json:"order"`
	Required           bool            `json:"required"`
	MultiEntry         bool            `json:"multi_entry"`
	Attrs              map[string]Attr `json:"attrs"`
	TriggeredByScore   int             `json:"triggered_by_score"`
	TriggeredByOptions []OptionTrigger `json:"triggered_by_options"`
	Options            []Option        `json:"options"`
	Children           []Field         `json:"children"`

	Trigger Trigger `json:"-"`
}

// Attr is a single validation/rendering attribute (min_len, max_len,
// regexp, input_validation, ...).
type Attr struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Option struct {
	ID              string   `json:"id"`
	Order           int      `json:"order"`
	Label           string   `json:"label"`
	ScorePoints     int      `json:"score_points"`
	ScoreType       string   `json:"score_type"`
	BlockSubmission bool     `json:"block_submission"`
	TriggerReceiver []string `json:"trigger_receiver"`
}

// OptionTrigger is one clause of a trigger rule: the rule looks at whether
// the given option of the given field is currently selected.
type OptionTrigger struct {
	Field      string `json:"field"`
	Option     string `json:"option"`
	Sufficient bool   `json:"sufficient"`
}

// AnswerEntry is one answer instance for a field. Multi-entry fields
// hold several; everything else holds at most one.
type AnswerEntry struct {
	RequiredStatus bool   `json:"required_status"`
	Value          string `json:"value"`
}

// Answers maps field id to its ordered answer instances. For a child of a
// multi-entry fieldgroup, entry i belongs to instance i of the group.
type Answers map[string][]AnswerEntry

// Clone returns a deep copy. The engine copies answers before handing them
// to callers so session state cannot be mutated from outside.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for id, entries := range a {
		out[id] = append([]AnswerEntry(nil), entries...)
	}
	return out
}

type Receiver struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ForcefullySelected bool   `json:"forcefully_selected"`
}

// Context binds a questionnaire to the submission policy a report is
// created against.
type Context struct {
	ID                         string   `json:"id"`
	Name                       string   `json:"name"`
	SelectAllReceivers         bool     `json:"select_all_receivers"`
	AllowRecipientsSelection   bool     `json:"allow_recipients_selection"`
	MaximumSelectableReceivers int      `json:"maximum_selectable_receivers"`
	ScoreThresholdMedium       int      `json:"score_threshold_medium"`
	ScoreThresholdHigh         int      `json:"score_threshold_high"`
	QuestionnaireID            string   `json:"questionnaire_id"`
	AdditionalQuestionnaireID  string   `json:"additional_questionnaire_id"`
	Receivers                  []string `json:"receivers"`
}

// Field looks up a field anywhere in the step/fieldgroup tree.
// Only valid after Compile.
func (q *Questionnaire) Field(id string) *Field {
	return q.fields[id]
}

// Walk visits every field of the questionnaire depth-first, in schema
// order, passing the enclosing step.
func (q *Questionnaire) Walk(visit func(s *Step, f *Field)) {
	for i := range q.Steps {
		s := &q.Steps[i]
		walkFields(s, s.Children, visit)
	}
}

func walkFields(s *Step, fields []Field, visit func(*Step, *Field)) {
	for i := range fields {
		f := &fields[i]
		visit(s, f)
		walkFields(s, f.Children, visit)
	}
}

func (f *Field) option(id string) *Option {
	for i := range f.Options {
		if f.Options[i].ID == id {
			return &f.Options[i]
		}
	}
	return nil
}
