// internal/models/application.go
package models

import (
	"errors"
	"fmt"
)

// Field names. Each category accepts only its own subset.
const (
	FieldName             = "name"
	FieldCollateral       = "collateral"
	FieldAmount           = "amount"
	FieldPurpose          = "purpose"
	FieldPhone            = "phone"
	FieldCompanyName      = "company_name"
	FieldInvestmentAmount = "investment_amount"
	FieldTermMonths       = "term_months"
	FieldInvestmentGoal   = "investment_goal"
)

var (
	ErrForeignField = errors.New("field does not belong to category")
	ErrFieldType    = errors.New("unexpected field value type")
)

// Application is the data collected by one questionnaire. The concrete type
// is one of *IndividualApplication, *BusinessApplication or
// *InvestorApplication.
type Application interface {
	Category() Category
	// Set stores a validated value. Names outside the category's field set
	// are rejected with ErrForeignField.
	Set(field string, value interface{}) error
	// Fields returns the values set so far keyed by field name.
	Fields() map[string]interface{}
	Clone() Application
	Summary() Summary
}

// NewApplication returns an empty record for the category, nil for CategoryNone.
func NewApplication(c Category) Application {
	switch c {
	case CategoryIndividual:
		return &IndividualApplication{}
	case CategoryBusiness:
		return &BusinessApplication{}
	case CategoryInvestor:
		return &InvestorApplication{}
	}
	return nil
}

type IndividualApplication struct {
	Name       string `json:"name,omitempty"`
	Collateral string `json:"collateral,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	Purpose    string `json:"purpose,omitempty"`
	Phone      string `json:"phone,omitempty"`

	assigned fieldSet
}

func (a *IndividualApplication) Category() Category { return CategoryIndividual }

func (a *IndividualApplication) Set(field string, value interface{}) error {
	if err := a.set(field, value); err != nil {
		return err
	}
	a.assigned.add(field)
	return nil
}

func (a *IndividualApplication) set(field string, value interface{}) error {
	switch field {
	case FieldName:
		return setString(&a.Name, field, value)
	case FieldCollateral:
		return setString(&a.Collateral, field, value)
	case FieldAmount:
		return setInt64(&a.Amount, field, value)
	case FieldPurpose:
		return setString(&a.Purpose, field, value)
	case FieldPhone:
		return setString(&a.Phone, field, value)
	}
	return foreignField(CategoryIndividual, field)
}

func (a *IndividualApplication) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	putString(m, a.assigned, FieldName, a.Name)
	putString(m, a.assigned, FieldCollateral, a.Collateral)
	putInt64(m, a.assigned, FieldAmount, a.Amount)
	putString(m, a.assigned, FieldPurpose, a.Purpose)
	putString(m, a.assigned, FieldPhone, a.Phone)
	return m
}

func (a *IndividualApplication) Clone() Application {
	c := *a
	return &c
}

func (a *IndividualApplication) Summary() Summary {
	return newSummary(a.Name, a.Phone)
}

type BusinessApplication struct {
	CompanyName string `json:"company_name,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	Collateral  string `json:"collateral,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Phone       string `json:"phone,omitempty"`

	assigned fieldSet
}

func (a *BusinessApplication) Category() Category { return CategoryBusiness }

func (a *BusinessApplication) Set(field string, value interface{}) error {
	if err := a.set(field, value); err != nil {
		return err
	}
	a.assigned.add(field)
	return nil
}

func (a *BusinessApplication) set(field string, value interface{}) error {
	switch field {
	case FieldCompanyName:
		return setString(&a.CompanyName, field, value)
	case FieldAmount:
		return setInt64(&a.Amount, field, value)
	case FieldCollateral:
		return setString(&a.Collateral, field, value)
	case FieldPurpose:
		return setString(&a.Purpose, field, value)
	case FieldPhone:
		return setString(&a.Phone, field, value)
	}
	return foreignField(CategoryBusiness, field)
}

func (a *BusinessApplication) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	putString(m, a.assigned, FieldCompanyName, a.CompanyName)
	putInt64(m, a.assigned, FieldAmount, a.Amount)
	putString(m, a.assigned, FieldCollateral, a.Collateral)
	putString(m, a.assigned, FieldPurpose, a.Purpose)
	putString(m, a.assigned, FieldPhone, a.Phone)
	return m
}

func (a *BusinessApplication) Clone() Application {
	c := *a
	return &c
}

func (a *BusinessApplication) Summary() Summary {
	return newSummary(a.CompanyName, a.Phone)
}

type InvestorApplication struct {
	Name             string `json:"name,omitempty"`
	InvestmentAmount int64  `json:"investment_amount,omitempty"`
	TermMonths       int    `json:"term_months,omitempty"`
	InvestmentGoal   string `json:"investment_goal,omitempty"`
	Phone            string `json:"phone,omitempty"`

	assigned fieldSet
}

func (a *InvestorApplication) Category() Category { return CategoryInvestor }

func (a *InvestorApplication) Set(field string, value interface{}) error {
	if err := a.set(field, value); err != nil {
		return err
	}
	a.assigned.add(field)
	return nil
}

func (a *InvestorApplication) set(field string, value interface{}) error {
	switch field {
	case FieldName:
		return setString(&a.Name, field, value)
	case FieldInvestmentAmount:
		return setInt64(&a.InvestmentAmount, field, value)
	case FieldTermMonths:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s=%T", ErrFieldType, field, value)
		}
		a.TermMonths = v
		return nil
	case FieldInvestmentGoal:
		return setString(&a.InvestmentGoal, field, value)
	case FieldPhone:
		return setString(&a.Phone, field, value)
	}
	return foreignField(CategoryInvestor, field)
}

func (a *InvestorApplication) Fields() map[string]interface{} {
	m := map[string]interface{}{}
	putString(m, a.assigned, FieldName, a.Name)
	putInt64(m, a.assigned, FieldInvestmentAmount, a.InvestmentAmount)
	if a.TermMonths != 0 || a.assigned.has(FieldTermMonths) {
		m[FieldTermMonths] = a.TermMonths
	}
	putString(m, a.assigned, FieldInvestmentGoal, a.InvestmentGoal)
	putString(m, a.assigned, FieldPhone, a.Phone)
	return m
}

func (a *InvestorApplication) Clone() Application {
	c := *a
	return &c
}

func (a *InvestorApplication) Summary() Summary {
	return newSummary(a.Name, a.Phone)
}

func foreignField(c Category, field string) error {
	return fmt.Errorf("%w: %q is not a %s field", ErrForeignField, field, c)
}

func setString(dst *string, field string, value interface{}) error {
	v, ok := value.(string)
	if !ok {
		return fmt.Errorf("%w: %s=%T", ErrFieldType, field, value)
	}
	*dst = v
	return nil
}

func setInt64(dst *int64, field string, value interface{}) error {
	switch v := value.(type) {
	case int64:
		*dst = v
	case int:
		*dst = int64(v)
	default:
		return fmt.Errorf("%w: %s=%T", ErrFieldType, field, value)
	}
	return nil
}

func putString(m map[string]interface{}, assigned fieldSet, key, v string) {
	if v != "" || assigned.has(key) {
		m[key] = v
	}
}

func putInt64(m map[string]interface{}, assigned fieldSet, key string, v int64) {
	if v != 0 || assigned.has(key) {
		m[key] = v
	}
}

// fieldSet marks the fields assigned through Set, so a blank free-text
// answer is still reported as collected.
type fieldSet uint16

var fieldBits = map[string]fieldSet{
	FieldName:             1 << 0,
	FieldCollateral:       1 << 1,
	FieldAmount:           1 << 2,
	FieldPurpose:          1 << 3,
	FieldPhone:            1 << 4,
	FieldCompanyName:      1 << 5,
	FieldInvestmentAmount: 1 << 6,
	FieldTermMonths:       1 << 7,
	FieldInvestmentGoal:   1 << 8,
}

func (s *fieldSet) add(field string) { *s |= fieldBits[field] }

func (s fieldSet) has(field string) bool { return s&fieldBits[field] != 0 }
