package model

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Comparison is the operator applied as (score <op> threshold)
type Comparison string

const (
	CompareLT  Comparison = "lt"
	CompareLTE Comparison = "lte"
	CompareGT  Comparison = "gt"
	CompareGTE Comparison = "gte"
	CompareEQ  Comparison = "eq"
	CompareNEQ Comparison = "neq"
)

// Valid reports whether c is a known comparison
func (c Comparison) Valid() bool {
	switch c {
	case CompareLT, CompareLTE, CompareGT, CompareGTE, CompareEQ, CompareNEQ:
		return true
	}
	return false
}

// OutcomeCategory classifies a student's fit for a course
type OutcomeCategory string

const (
	OutcomeRecommended  OutcomeCategory = "RECOMMENDED_TO_TAKE_COURSE"
	OutcomeEligibleERPL OutcomeCategory = "ELIGIBLE_FOR_ERPL"
	OutcomeNotSuitable  OutcomeCategory = "NOT_SUITABLE_FOR_COURSE"
	OutcomeUndefined    OutcomeCategory = "UNDEFINED"
)

// Valid reports whether o is a known outcome category
func (o OutcomeCategory) Valid() bool {
	switch o {
	case OutcomeRecommended, OutcomeEligibleERPL, OutcomeNotSuitable, OutcomeUndefined:
		return true
	}
	return false
}

// ScoreFeedbackItem selects a feedback message when a score meets a threshold.
// ScoreValue is a pointer so a missing threshold can be told apart from zero.
type ScoreFeedbackItem struct {
	ScoreValue *float64   `json:"score_value" bson:"score_value"`
	Comparison Comparison `json:"comparison" bson:"comparison"`
	Feedback   string     `json:"feedback" bson:"feedback"`
}

// OutcomeThresholdItem selects an outcome category when a score meets a threshold
type OutcomeThresholdItem struct {
	ScoreValue *float64        `json:"score_value" bson:"score_value"`
	Comparison Comparison      `json:"comparison" bson:"comparison"`
	Outcome    OutcomeCategory `json:"outcome" bson:"outcome"`
}

// UnmarshalBSONValue decodes a stored item leniently. Fields of the wrong
// type are left zero, so the item is skipped at scoring time instead of
// failing the whole document.
func (i *ScoreFeedbackItem) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	doc := lenientDocument(t, data)
	*i = ScoreFeedbackItem{
		ScoreValue: numberField(doc, "score_value"),
		Comparison: Comparison(stringField(doc, "comparison")),
		Feedback:   stringField(doc, "feedback"),
	}
	return nil
}

// UnmarshalBSONValue decodes a stored item leniently, like ScoreFeedbackItem
func (i *OutcomeThresholdItem) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	doc := lenientDocument(t, data)
	*i = OutcomeThresholdItem{
		ScoreValue: numberField(doc, "score_value"),
		Comparison: Comparison(stringField(doc, "comparison")),
		Outcome:    OutcomeCategory(stringField(doc, "outcome")),
	}
	return nil
}

func lenientDocument(t bsontype.Type, data []byte) bson.Raw {
	if t != bsontype.EmbeddedDocument {
		return nil
	}
	doc := bson.Raw(data)
	if doc.Validate() != nil {
		return nil
	}
	return doc
}

func numberField(doc bson.Raw, key string) *float64 {
	if doc == nil {
		return nil
	}
	v, err := doc.LookupErr(key)
	if err != nil {
		return nil
	}

	var f float64
	switch v.Type {
	case bsontype.Double:
		f = v.Double()
	case bsontype.Int32:
		f = float64(v.Int32())
	case bsontype.Int64:
		f = float64(v.Int64())
	default:
		return nil
	}
	return &f
}

func stringField(doc bson.Raw, key string) string {
	if doc == nil {
		return ""
	}
	v, err := doc.LookupErr(key)
	if err != nil {
		return ""
	}
	s, _ := v.StringValueOK()
	return s
}
