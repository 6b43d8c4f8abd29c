package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when no open session matches the ID.
	ErrSessionNotFound = errors.New("study session not found")
	// ErrCollectionNotFound indicates the item source has no such collection.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrNetwork indicates the item source or submission sink could not be reached.
	ErrNetwork = errors.New("network error")
	// ErrValidation is returned by the submission sink for malformed submissions.
	ErrValidation = errors.New("validation error")
	// ErrItemNotFound indicates an answer referenced an item outside the session.
	ErrItemNotFound = errors.New("item not found")
	// ErrOptionNotFound indicates a selected option is not offered by the question.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidRating indicates a flashcard self-assessment other than correct/incorrect.
	ErrInvalidRating = errors.New("invalid self-assessment")
	// ErrDuplicateItem is returned when a collection repeats an item ID.
	ErrDuplicateItem = errors.New("duplicate item id")

	// ErrLoadFailure wraps any failure to fetch a collection.
	ErrLoadFailure = errors.New("collection could not be loaded")
	// ErrLoadAbandoned is returned when the caller went away before the load resolved.
	ErrLoadAbandoned = errors.New("collection load abandoned")
	// ErrAlreadyAnswered is returned for a second answer to a revealed item.
	ErrAlreadyAnswered = errors.New("item already answered")
	// ErrAnswerRequired is returned when advancing past an unanswered question.
	ErrAnswerRequired = errors.New("answer required before advancing")
	// ErrIncompleteSubmission is matched by IncompleteSubmissionError.
	ErrIncompleteSubmission = errors.New("incomplete submission")
	// ErrSubmissionPending is returned while a submission is in flight.
	ErrSubmissionPending = errors.New("submission pending")
	// ErrSubmissionFailure wraps sink failures during finalize.
	ErrSubmissionFailure = errors.New("submission failed")
	// ErrSessionFinished is returned for mutations after completion.
	ErrSessionFinished = errors.New("session already finished")
)

// IncompleteSubmissionError reports how many items are still unanswered.
type IncompleteSubmissionError struct {
	Missing int
	Total   int
}

func (e *IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("%d of %d items unanswered", e.Missing, e.Total)
}

func (e *IncompleteSubmissionError) Is(target error) bool {
	return target == ErrIncompleteSubmission
}
