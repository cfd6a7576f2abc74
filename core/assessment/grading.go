package assessment

// Grade scores submitted answers against a frozen question set.
//
// It is a pure function: same inputs always yield the same Score, regardless
// of the order answers are supplied in. Only scorable questions (declared
// points + at least one correct option for choice types) contribute to
// Total. Missing or malformed answers simply earn no credit; answers
// referencing unknown question ids are ignored. When several answers target
// the same question, the first one wins.
func Grade(questions []Question, answers []Answer) Score {
	byQuestion := make(map[string]Answer, len(answers))
	for _, ans := range answers {
		if _, ok := byQuestion[ans.QuestionID]; !ok {
			byQuestion[ans.QuestionID] = ans
		}
	}

	var score Score
	for _, q := range questions {
		if !q.IsScorable() {
			continue
		}
		score.Total += q.Points

		ans, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		if answerEarnsCredit(q, ans) {
			score.Earned += q.Points
		}
	}
	return score
}

// answerEarnsCredit decides full credit for a scorable question; there is no
// partial credit.
func answerEarnsCredit(q Question, ans Answer) bool {
	correct := q.CorrectOptionIDs()

	switch q.Type {
	case QuestionSingle:
		// membership check; exclusivity of the correct option is not assumed
		return ans.Choice != "" && correct[ans.Choice]
	case QuestionMulti:
		// exact set match only: subsets and supersets earn nothing
		submitted := make(map[string]bool, len(ans.Choices))
		for _, id := range ans.Choices {
			submitted[id] = true
		}
		if len(submitted) != len(correct) {
			return false
		}
		for id := range submitted {
			if !correct[id] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
