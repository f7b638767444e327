package scoring

// StoredAnswer is an answer as saved during an attempt
type StoredAnswer struct {
	ID         string
	QCAID      string
	QuestionID string
	Value      interface{}
}

// ScoredAnswer is a stored answer with its computed score and resolved course
type ScoredAnswer struct {
	StoredAnswer
	CourseID string
	Score    float64
}

// AggregateResult is the outcome of scoring every answer of an attempt
type AggregateResult struct {
	CourseScores map[string]float64
	Scored       []ScoredAnswer
	Dropped      int // answers whose association or question no longer exists
	OutOfSurvey  int // scored answers whose course is not part of the survey
}

// Aggregate scores each answer and sums signed contributions per survey course.
// The question is resolved through the answer's association. Totals are not clamped.
func Aggregate(answers []StoredAnswer, qcas map[string]Association, questions map[string]Question, courseIDs []string) AggregateResult {
	res := AggregateResult{
		CourseScores: make(map[string]float64, len(courseIDs)),
		Scored:       make([]ScoredAnswer, 0, len(answers)),
	}
	for _, id := range courseIDs {
		res.CourseScores[id] = 0
	}

	for _, ans := range answers {
		qca, ok := qcas[ans.QCAID]
		if !ok {
			res.Dropped++
			continue
		}
		question, ok := questions[qca.QuestionID]
		if !ok {
			res.Dropped++
			continue
		}

		score := Score(question, ans.Value)
		res.Scored = append(res.Scored, ScoredAnswer{StoredAnswer: ans, CourseID: qca.CourseID, Score: score})

		if _, inSurvey := res.CourseScores[qca.CourseID]; !inSurvey {
			res.OutOfSurvey++
			continue
		}
		res.CourseScores[qca.CourseID] += qca.Contribution(score)
	}
	return res
}

// OverallScore sums the first score seen for each distinct question
func OverallScore(scored []ScoredAnswer) float64 {
	seen := make(map[string]struct{}, len(scored))
	total := 0.0
	for _, s := range scored {
		if _, ok := seen[s.QuestionID]; ok {
			continue
		}
		seen[s.QuestionID] = struct{}{}
		total += s.Score
	}
	return round2(total)
}
