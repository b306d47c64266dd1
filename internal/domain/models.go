package domain

import "time"

// Option is one selectable answer for a question. Value is the score
// weight contributed when the option is chosen.
type Option struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Question models a single weighted multiple-choice question.
type Question struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Subtitle string   `json:"subtitle,omitempty"`
	Options  []Option `json:"options"`
}

// MaxValue returns the largest option weight for the question.
func (q Question) MaxValue() int {
	max := 0
	for _, opt := range q.Options {
		if opt.Value > max {
			max = opt.Value
		}
	}
	return max
}

// HasValue reports whether value is one of the question's option weights.
func (q Question) HasValue(value int) bool {
	for _, opt := range q.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Catalog is the ordered, immutable list of questions a session walks.
type Catalog struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Len returns the number of questions.
func (c Catalog) Len() int { return len(c.Questions) }

// Step enumerates the linear session flow.
type Step string

const (
	StepWelcome      Step = "welcome"
	StepAsking       Step = "asking"
	StepEmailCapture Step = "email"
	StepSubmitting   Step = "submitting"
	StepResult       Step = "result"
)

// SubmissionStatus tracks the lifecycle of the outbound lead POST.
type SubmissionStatus string

const (
	SubmissionNotStarted SubmissionStatus = "not_started"
	SubmissionInFlight   SubmissionStatus = "in_flight"
	SubmissionSucceeded  SubmissionStatus = "succeeded"
	SubmissionFailed     SubmissionStatus = "failed"
)

// SubmissionResult is the explicit outcome of one webhook attempt. It is
// recorded on the session for observability and never blocks the
// transition to the result step.
type SubmissionResult struct {
	Status     SubmissionStatus `json:"status"`
	HTTPStatus int              `json:"httpStatus,omitempty"`
	Body       string           `json:"body,omitempty"`
	Err        string           `json:"error,omitempty"`
}

// AnswerRecord pairs an answered question with its chosen value, in catalog
// order, for the human-readable lead summary.
type AnswerRecord struct {
	QuestionID string
	Prompt     string
	Value      int
}

// Lead is the captured respondent data forwarded to the marketing webhook.
type Lead struct {
	Email      string
	Answers    []AnswerRecord
	Score      int
	TierLabel  string
	CapturedAt time.Time
}

// Tier is a classification bucket selected by score range. Tiers are
// configuration data; MinScore is the inclusive lower bound.
type Tier struct {
	MinScore    int      `json:"minScore" yaml:"min_score"`
	Label       string   `json:"label" yaml:"label"`
	Subtitle    string   `json:"subtitle" yaml:"subtitle"`
	Description string   `json:"description" yaml:"description"`
	Color       string   `json:"color" yaml:"color"`
	Emoji       string   `json:"emoji" yaml:"emoji"`
	Actions     []string `json:"actions" yaml:"actions"`
}

// StateView is the snapshot the presentation layer renders. Fields that do
// not apply to the current step are left empty.
type StateView struct {
	SessionID        string           `json:"sessionId"`
	Step             Step             `json:"step"`
	QuestionIndex    int              `json:"questionIndex"`
	Question         *Question        `json:"question,omitempty"`
	TotalQuestions   int              `json:"totalQuestions"`
	Progress         float64          `json:"progress"`
	EmailError       string           `json:"emailError,omitempty"`
	SubmissionStatus SubmissionStatus `json:"submissionStatus"`
	Tier             *Tier            `json:"tier,omitempty"`
	Score            int              `json:"score"`
	PercentScore     int              `json:"percentScore"`
	BookingURL       string           `json:"bookingUrl,omitempty"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}
