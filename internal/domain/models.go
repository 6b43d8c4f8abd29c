package domain

import "time"

// ItemKind discriminates the item variants a session can hold.
type ItemKind string

const (
	KindQuestion  ItemKind = "question"
	KindFlashcard ItemKind = "flashcard"
)

// Self-assessment values recorded for flashcards.
const (
	RatingCorrect   = "correct"
	RatingIncorrect = "incorrect"
)

// Item is the unit under study. For questions Prompt is the question text and
// AnswerKey the correct option; for flashcards Prompt is the front and
// AnswerKey the back.
type Item struct {
	ID        string   `json:"id" yaml:"id"`
	Kind      ItemKind `json:"kind" yaml:"kind"`
	Prompt    string   `json:"prompt" yaml:"prompt"`
	AnswerKey string   `json:"answerKey" yaml:"answerKey"`
	Options   []string `json:"options,omitempty" yaml:"options"`
}

// NewQuestion builds a multiple choice item.
func NewQuestion(id, prompt, answer string, options ...string) Item {
	return Item{ID: id, Kind: KindQuestion, Prompt: prompt, AnswerKey: answer, Options: options}
}

// NewFlashcard builds a front/back item.
func NewFlashcard(id, front, back string) Item {
	return Item{ID: id, Kind: KindFlashcard, Prompt: front, AnswerKey: back}
}

func (i Item) Front() string { return i.Prompt }
func (i Item) Back() string { return i.AnswerKey }

// Collection is an ordered set of items loaded from the item source.
type Collection struct {
	ID    string   `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Kind  ItemKind `json:"kind" yaml:"kind"`
	Items []Item   `json:"items" yaml:"items"`
}

// AnswerRecord is the per-item answer state. A record only exists once the
// item has been answered.
type AnswerRecord struct {
	ItemID    string `json:"itemId"`
	Selected  string `json:"selected"`
	Revealed  bool   `json:"revealed"`
	IsCorrect bool   `json:"isCorrect"`
}

// SubmittedAnswer is the wire form sent to the submission sink.
type SubmittedAnswer struct {
	ItemID string `json:"itemId"`
	Answer string `json:"answer"`
}

// SubmissionResult is returned by the submission sink.
type SubmissionResult struct {
	SubmissionID string `json:"submissionId"`
	FinalScore   int    `json:"finalScore"`
}

// Score is the frozen result of a completed session.
type Score struct {
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	Percent     int       `json:"percent"`
	ServerScore *int      `json:"serverScore,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// Completion is broadcast once per completed session.
type Completion struct {
	SessionID string `json:"sessionId"`
	Score     Score  `json:"score"`
	Celebrate bool   `json:"celebrate"`
}

// ItemView is the item at the cursor together with its stored record, if any.
type ItemView struct {
	Index  int           `json:"index"`
	Item   Item          `json:"item"`
	Answer *AnswerRecord `json:"answer,omitempty"`
}

// Snapshot is a read-only view of a session, recomputed on every read.
type Snapshot struct {
	SessionID    string         `json:"sessionId"`
	CollectionID string         `json:"collectionId"`
	Kind         ItemKind       `json:"kind"`
	Total        int            `json:"total"`
	Cursor       int            `json:"cursor"`
	Current      *ItemView      `json:"current,omitempty"`
	Answered     int            `json:"answered"`
	Correct      int            `json:"correct"`
	Accuracy     int            `json:"accuracy"`
	Finished     bool           `json:"finished"`
	Pending      bool           `json:"pending"`
	Score        *Score         `json:"score,omitempty"`
	Answers      []AnswerRecord `json:"answers"`
}

// Material is a context entry registered with the assistant.
type Material struct {
	ID                 string `json:"id"`
	DisplayName        string `json:"displayName"`
	Kind               string `json:"kind"`
	SourceCollectionID string `json:"sourceCollectionId"`
}

// ToastKind is the severity of a user notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a user-facing notification.
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
	Icon    string    `json:"icon,omitempty"`
}
