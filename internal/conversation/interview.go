package conversation

import (
	"strings"

	"github.com/assistaura/leadchat/internal/leads"
)

// FieldName names one piece of contact information collected by the interview.
type FieldName string

const (
	FieldFullName          FieldName = "name"
	FieldEmail             FieldName = "email"
	FieldPhone             FieldName = "phone"
	FieldServiceOfInterest FieldName = "serviceOfInterest"
	FieldAdditionalMessage FieldName = "additionalMessage"
)

// Field pairs a field with the question that elicits it.
type Field struct {
	Name   FieldName
	Prompt string
}

// Fields is the interview order. It is fixed for the life of the process.
var Fields = []Field{
	{Name: FieldFullName, Prompt: "What's your name?"},
	{Name: FieldEmail, Prompt: "What's your email address?"},
	{Name: FieldPhone, Prompt: "What's your phone number?"},
	{Name: FieldServiceOfInterest, Prompt: "Which service are you interested in? (" + strings.Join(leads.Services, ", ") + ")"},
	{Name: FieldAdditionalMessage, Prompt: "Any additional message or specific requirements?"},
}

// InterviewProgress tracks a partially answered interview.
type InterviewProgress struct {
	Answers        map[FieldName]string
	NextFieldIndex int
}

// InterviewEngine walks a fixed field sequence one answer at a time.
type InterviewEngine struct {
	fields []Field
}

func NewInterviewEngine() *InterviewEngine {
	return &InterviewEngine{fields: Fields}
}

// Start returns empty progress and the prompt for the first field.
func (e *InterviewEngine) Start() (*InterviewProgress, string) {
	return &InterviewProgress{Answers: make(map[FieldName]string, len(e.fields))}, e.fields[0].Prompt
}

// Accept stores raw under the current field and advances. It returns the next
// prompt, or complete=true once every field has an answer. raw is stored
// verbatim; callers reject blank input before getting here.
func (e *InterviewEngine) Accept(p *InterviewProgress, raw string) (nextPrompt string, complete bool) {
	if e.Complete(p) {
		return "", true
	}
	p.Answers[e.fields[p.NextFieldIndex].Name] = raw
	p.NextFieldIndex++
	if e.Complete(p) {
		return "", true
	}
	return e.fields[p.NextFieldIndex].Prompt, false
}

// Current returns the field awaiting an answer.
func (e *InterviewEngine) Current(p *InterviewProgress) (Field, bool) {
	if p == nil || e.Complete(p) {
		return Field{}, false
	}
	return e.fields[p.NextFieldIndex], true
}

func (e *InterviewEngine) Complete(p *InterviewProgress) bool {
	return p != nil && p.NextFieldIndex >= len(e.fields)
}
