package scoring

import (
	"fmt"
	"selfeval/internal/model"
)

const (
	// CourseFeedbackFallback is used when no course threshold matches
	CourseFeedbackFallback = "Please review your performance for this course section."
	// OverallFeedback closes every submitted attempt
	OverallFeedback = "Thank you for completing the survey. Your results are summarized above."
)

// Report is the feedback and outcome output for one attempt
type Report struct {
	CourseFeedback   map[string]string
	DetailedFeedback map[string][]string
	OverallFeedback  string
	CourseOutcomes   map[string]model.OutcomeCategory
}

// Generate builds per-answer, per-course and overall feedback and per-course outcomes.
// It is deterministic for the same inputs.
func Generate(courseScores map[string]float64, rules SurveyRules, scored []ScoredAnswer, qcas map[string]Association, questions map[string]Question) Report {
	report := Report{
		CourseFeedback:   make(map[string]string, len(rules.CourseIDs)),
		DetailedFeedback: make(map[string][]string, len(rules.CourseIDs)),
		OverallFeedback:  OverallFeedback,
		CourseOutcomes:   make(map[string]model.OutcomeCategory, len(rules.CourseIDs)),
	}
	for _, id := range rules.CourseIDs {
		report.DetailedFeedback[id] = []string{}
	}

	for _, ans := range scored {
		qca, ok := qcas[ans.QCAID]
		if !ok {
			continue
		}
		question, ok := questions[ans.QuestionID]
		if !ok {
			continue
		}
		if _, ok := report.DetailedFeedback[qca.CourseID]; !ok {
			report.DetailedFeedback[qca.CourseID] = []string{}
		}

		msg, ok := EvaluateFeedback(ans.Score, qca.Feedback)
		if !ok {
			msg, ok = EvaluateFeedback(ans.Score, question.DefaultFeedback)
		}
		if ok {
			report.DetailedFeedback[qca.CourseID] = append(report.DetailedFeedback[qca.CourseID],
				fmt.Sprintf("Q: %s: %s", question.Title, msg))
		}
	}

	for _, id := range rules.CourseIDs {
		total := courseScores[id]
		if msg, ok := EvaluateFeedback(total, rules.Feedback[id]); ok {
			report.CourseFeedback[id] = msg
		} else {
			report.CourseFeedback[id] = CourseFeedbackFallback
		}
		report.CourseOutcomes[id] = EvaluateOutcome(total, rules.Outcomes[id])
	}
	return report
}
