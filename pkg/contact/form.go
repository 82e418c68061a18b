// Package contact implements the about screen's inquiry form.
package contact

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// User-facing prompts.
const (
	PromptIncomplete = "Please fill out all fields."
	PromptSubmitted  = "Your inquiry has been submitted!"
)

// ErrIncomplete is returned when any field is empty.
var ErrIncomplete = errors.New(PromptIncomplete)

// Fields are the four form inputs.
type Fields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Complete reports whether every field has non-blank text.
func (f Fields) Complete() bool {
	for _, v := range []string{f.Name, f.Email, f.Subject, f.Message} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Inquiry is an accepted submission.
type Inquiry struct {
	ID          string    `json:"id"`
	Fields      Fields    `json:"fields"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Form holds the in-progress inquiry. Accepted inquiries go to the outbox.
type Form struct {
	mu     sync.Mutex
	fields Fields
	outbox Store
}

// NewForm creates an empty form. outbox may be nil.
func NewForm(outbox Store) *Form {
	return &Form{outbox: outbox}
}

// Set replaces the current field values.
func (f *Form) Set(fields Fields) {
	f.mu.Lock()
	f.fields = fields
	f.mu.Unlock()
}

// Fields returns the current field values.
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Submit validates the current fields. An incomplete form returns
// ErrIncomplete and keeps its values. A complete one is stored, cleared and
// answered with PromptSubmitted.
func (f *Form) Submit() (*Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.fields.Complete() {
		return nil, ErrIncomplete
	}

	inq := &Inquiry{
		ID:          uuid.NewString(),
		Fields:      f.fields,
		SubmittedAt: time.Now(),
	}
	if f.outbox != nil {
		if err := f.outbox.Save(inq); err != nil {
			return nil, err
		}
	}

	f.fields = Fields{}
	return inq, nil
}
