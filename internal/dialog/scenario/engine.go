// Package scenario holds the questionnaire state machine: the transition
// table of the three scenarios, their prompts and the keyword matching of the
// branch steps.
package scenario

import (
	"errors"
	"strings"
	"unicode"

	apperrors "lead-consultant/internal/common/errors"
	"lead-consultant/internal/dialog/validators"
	"lead-consultant/internal/models"
)

// UpdateKind tells the coordinator how to apply a transition to the session.
type UpdateKind int

const (
	// UpdateNone only moves the step (and may set category or service type).
	UpdateNone UpdateKind = iota
	// UpdateField stores Value under Field and moves the step.
	UpdateField
	// UpdateError keeps the session untouched; Err carries the reason.
	UpdateError
	// UpdateReset clears the collected fields before moving the step.
	UpdateReset
	// UpdateComplete marks the session completed.
	UpdateComplete
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateField:
		return "field"
	case UpdateError:
		return "error"
	case UpdateReset:
		return "reset"
	case UpdateComplete:
		return "complete"
	}
	return "none"
}

// Update is the result of one transition.
type Update struct {
	Kind        UpdateKind
	Field       string
	Value       interface{}
	Category    models.Category
	ServiceType models.ServiceType
	Err         *apperrors.StandardError
}

// State is the part of a session the engine reads. The engine never writes it.
type State struct {
	Category models.Category
}

var (
	loanKeywords       = []string{"займ", "кредит"}
	investKeywords     = []string{"инвест"}
	individualKeywords = []string{"физ", "лич"}
	businessKeywords   = []string{"биз", "юр", "ип"}
	confirmKeywords    = []string{"да", "отправ"}
	declineKeywords    = []string{"нет", "исправ"}
)

// fieldStep is one data collection step: the prompt step, the field it fills
// and how raw text is turned into the stored value.
type fieldStep struct {
	step   models.Step
	field  string
	accept func(raw string) (interface{}, error)
}

type questionnaire struct {
	category   models.Category
	fields     []fieldStep
	confirm    models.Step
	unknownMsg string
}

func (q *questionnaire) first() models.Step {
	return q.fields[0].step
}

// Engine computes transitions. It is stateless and safe for concurrent use.
type Engine struct {
	scenarios map[models.Category]*questionnaire
}

func NewEngine(amounts validators.AmountRange) *Engine {
	amount := func(raw string) (interface{}, error) { return amounts.Amount(raw) }
	phone := func(raw string) (interface{}, error) { return validators.Phone(raw) }
	name := func(raw string) (interface{}, error) { return validators.Name(raw) }
	term := func(raw string) (interface{}, error) { return validators.TermMonths(raw) }
	company := func(raw string) (interface{}, error) { return validators.CompanyName(raw) }

	return &Engine{scenarios: map[models.Category]*questionnaire{
		models.CategoryIndividual: {
			category: models.CategoryIndividual,
			fields: []fieldStep{
				{models.StepIndividualAskName, models.FieldName, name},
				{models.StepIndividualAskCollateral, models.FieldCollateral, nil},
				{models.StepIndividualAskAmount, models.FieldAmount, amount},
				{models.StepIndividualAskPurpose, models.FieldPurpose, nil},
				{models.StepIndividualAskPhone, models.FieldPhone, phone},
			},
			confirm:    models.StepIndividualConfirm,
			unknownMsg: "Неизвестный шаг в сценарии физлица",
		},
		models.CategoryBusiness: {
			category: models.CategoryBusiness,
			fields: []fieldStep{
				{models.StepBusinessAskCompanyName, models.FieldCompanyName, company},
				{models.StepBusinessAskAmount, models.FieldAmount, amount},
				{models.StepBusinessAskCollateral, models.FieldCollateral, nil},
				{models.StepBusinessAskPurpose, models.FieldPurpose, nil},
				{models.StepBusinessAskPhone, models.FieldPhone, phone},
			},
			confirm:    models.StepBusinessConfirm,
			unknownMsg: "Неизвестный шаг в сценарии бизнеса",
		},
		models.CategoryInvestor: {
			category: models.CategoryInvestor,
			fields: []fieldStep{
				{models.StepInvestorAskName, models.FieldName, name},
				{models.StepInvestorAskAmount, models.FieldInvestmentAmount, amount},
				{models.StepInvestorAskTerm, models.FieldTermMonths, term},
				{models.StepInvestorAskGoal, models.FieldInvestmentGoal, nil},
				{models.StepInvestorAskPhone, models.FieldPhone, phone},
			},
			confirm:    models.StepInvestorConfirm,
			unknownMsg: "Неизвестный шаг в сценарии инвестора",
		},
	}}
}

// Next returns the step that follows step for the given input, and the
// update the caller has to apply to the session.
func (e *Engine) Next(step models.Step, input string, state State) (models.Step, Update) {
	switch step {
	case models.StepWelcome:
		return models.StepAskLoanOrInvest, Update{}

	case models.StepError:
		return models.StepAskLoanOrInvest, Update{Kind: UpdateReset}

	case models.StepAskLoanOrInvest:
		lower := strings.ToLower(input)
		switch {
		case containsAny(lower, loanKeywords):
			return models.StepAskIndividualOrBusiness, Update{ServiceType: models.ServiceLoan}
		case containsAny(lower, investKeywords):
			return models.StepInvestorAskName, Update{
				Category:    models.CategoryInvestor,
				ServiceType: models.ServiceInvest,
			}
		}
		return step, unrecognizedChoice(step)

	case models.StepAskIndividualOrBusiness:
		lower := strings.ToLower(input)
		switch {
		case containsAny(lower, individualKeywords):
			return models.StepIndividualAskName, Update{Category: models.CategoryIndividual}
		case containsAny(lower, businessKeywords):
			return models.StepBusinessAskCompanyName, Update{Category: models.CategoryBusiness}
		}
		return step, unrecognizedChoice(step)
	}

	q, ok := e.scenarios[state.Category]
	if !ok {
		return models.StepError, Update{
			Kind: UpdateError,
			Err:  apperrors.NewUnknownScenarioError("Неизвестный сценарий", string(step), string(state.Category)),
		}
	}
	return q.next(step, input)
}

func (q *questionnaire) next(step models.Step, input string) (models.Step, Update) {
	for i, f := range q.fields {
		if f.step != step {
			continue
		}

		var value interface{} = strings.TrimSpace(input)
		if f.accept != nil {
			v, err := f.accept(input)
			if err != nil {
				return step, rejection(err)
			}
			value = v
		}

		nextStep := q.confirm
		if i+1 < len(q.fields) {
			nextStep = q.fields[i+1].step
		}
		return nextStep, Update{Kind: UpdateField, Field: f.field, Value: value}
	}

	if step == q.confirm {
		if isAffirmative(input) {
			return models.StepCompleted, Update{Kind: UpdateComplete}
		}
		return q.first(), Update{Kind: UpdateReset}
	}

	return models.StepError, Update{
		Kind: UpdateError,
		Err:  apperrors.NewUnknownScenarioError(q.unknownMsg, string(step), string(q.category)),
	}
}

// isAffirmative matches the confirm keywords unless the answer opens with a
// negative: "не надо" contains "да", "Да, не сомневаюсь" still confirms.
func isAffirmative(input string) bool {
	lower := strings.ToLower(input)
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })
	if len(words) > 0 && opensWithDecline(words[0]) {
		return false
	}
	return containsAny(lower, confirmKeywords)
}

func opensWithDecline(word string) bool {
	if word == "не" {
		return true
	}
	for _, k := range declineKeywords {
		if strings.HasPrefix(word, k) {
			return true
		}
	}
	return false
}

func unrecognizedChoice(step models.Step) Update {
	opts := Options(step)
	return Update{
		Kind: UpdateError,
		Err:  apperrors.NewUnrecognizedChoiceError(string(step), "Пожалуйста, выберите: "+strings.Join(opts, " или ")),
	}
}

func rejection(err error) Update {
	var verr *validators.Error
	if errors.As(err, &verr) {
		return Update{Kind: UpdateError, Err: apperrors.NewValidationFailedError(verr.Field, verr.Reason)}
	}
	return Update{Kind: UpdateError, Err: apperrors.NewInternalError(err)}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
