package models

import (
	"strings"
	"time"
)

// Category is the questionnaire a session is filling in.
type Category string

const (
	CategoryNone       Category = ""
	CategoryIndividual Category = "individual"
	CategoryBusiness   Category = "business"
	CategoryInvestor   Category = "investor"
)

// ParseCategory accepts the public category tokens used by quick start.
func ParseCategory(token string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(token))); c {
	case CategoryIndividual, CategoryBusiness, CategoryInvestor:
		return c, true
	}
	return CategoryNone, false
}

// Label is the Russian name used in notifications.
func (c Category) Label() string {
	switch c {
	case CategoryIndividual:
		return "Физическое лицо"
	case CategoryBusiness:
		return "Бизнес"
	case CategoryInvestor:
		return "Инвестор"
	}
	return "Не указано"
}

// ServiceType is recorded at the loan-or-invest branch.
type ServiceType string

const (
	ServiceNone   ServiceType = ""
	ServiceLoan   ServiceType = "loan"
	ServiceInvest ServiceType = "invest"
)

// Step is a node of the dialog state machine. The string values are part of
// the public API and must not change.
type Step string

const (
	StepWelcome                 Step = "welcome"
	StepAskLoanOrInvest         Step = "ask_loan_or_invest"
	StepAskIndividualOrBusiness Step = "ask_individual_or_business"

	StepIndividualAskName       Step = "individual_ask_name"
	StepIndividualAskCollateral Step = "individual_ask_collateral"
	StepIndividualAskAmount     Step = "individual_ask_amount"
	StepIndividualAskPurpose    Step = "individual_ask_purpose"
	StepIndividualAskPhone      Step = "individual_ask_phone"
	StepIndividualConfirm       Step = "individual_confirm"

	StepBusinessAskCompanyName Step = "business_ask_company_name"
	StepBusinessAskAmount      Step = "business_ask_amount"
	StepBusinessAskCollateral  Step = "business_ask_collateral"
	StepBusinessAskPurpose     Step = "business_ask_purpose"
	StepBusinessAskPhone       Step = "business_ask_phone"
	StepBusinessConfirm        Step = "business_confirm"

	StepInvestorAskName   Step = "investor_ask_name"
	StepInvestorAskAmount Step = "investor_ask_amount"
	StepInvestorAskTerm   Step = "investor_ask_term"
	StepInvestorAskGoal   Step = "investor_ask_goal"
	StepInvestorAskPhone  Step = "investor_ask_phone"
	StepInvestorConfirm   Step = "investor_confirm"

	StepCompleted Step = "completed"
	StepError     Step = "error"
)

func (s Step) String() string {
	return string(s)
}

// Session is one user's dialog. Stores hand out copies, so mutating a
// Session never changes stored state until it is passed to Update.
type Session struct {
	ID          string      `json:"session_id"`
	Step        Step        `json:"current_step"`
	Category    Category    `json:"user_category,omitempty"`
	ServiceType ServiceType `json:"service_type,omitempty"`
	Application Application `json:"collected_fields,omitempty"`
	Completed   bool        `json:"completed"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewSession returns a session at the welcome step.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Step:      StepWelcome,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Application != nil {
		c.Application = s.Application.Clone()
	}
	return &c
}

// Fields returns the collected values, empty before a category is chosen.
func (s *Session) Fields() map[string]interface{} {
	if s.Application == nil {
		return map[string]interface{}{}
	}
	return s.Application.Fields()
}
