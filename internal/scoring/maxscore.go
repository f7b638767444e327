package scoring

// ComputeMaxima returns the attainable maximum per survey course and overall.
// Each (question, course) pair counts once toward its course; each distinct
// question counts once toward the overall maximum.
func ComputeMaxima(courseIDs []string, associations []Association) (map[string]float64, float64) {
	perCourse := make(map[string]float64, len(courseIDs))
	for _, id := range courseIDs {
		perCourse[id] = 0
	}

	type pair struct{ question, course string }
	counted := make(map[pair]struct{}, len(associations))
	questions := make(map[string]struct{}, len(associations))

	for _, a := range associations {
		if _, ok := perCourse[a.CourseID]; !ok {
			continue
		}
		questions[a.QuestionID] = struct{}{}
		p := pair{question: a.QuestionID, course: a.CourseID}
		if _, ok := counted[p]; ok {
			continue
		}
		counted[p] = struct{}{}
		perCourse[a.CourseID] += MaxScore
	}
	return perCourse, float64(len(questions)) * MaxScore
}
