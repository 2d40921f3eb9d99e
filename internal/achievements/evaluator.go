package achievements

import "mechedu-quiz-service/internal/progress"

const (
	FirstQuiz    = "first-quiz"
	AllQuizzes   = "all-quizzes"
	HighScore    = "high-score"
	PerfectScore = "perfect-score"

	highScoreThreshold = 90
)

// Evaluate returns the ids of every rule satisfied by a completion of quizID with score.
// prior is the progress snapshot taken before the completion was recorded and known is the
// quiz set all-quizzes ranges over. Every rule is checked on every call; filtering out already
// unlocked achievements is the ledger's job.
func Evaluate(quizID string, score int, prior progress.Snapshot, known []string) []string {
	var qualified []string

	if prior.CompletedCount() == 0 {
		qualified = append(qualified, FirstQuiz)
	}
	if allCompletedWith(quizID, prior, known) {
		qualified = append(qualified, AllQuizzes)
	}
	if score >= highScoreThreshold {
		qualified = append(qualified, HighScore)
	}
	if score == 100 {
		qualified = append(qualified, PerfectScore)
	}
	return qualified
}

// allCompletedWith reports whether every known quiz is completed once quizID is marked complete.
// Stored ids outside the known set do not count.
func allCompletedWith(quizID string, prior progress.Snapshot, known []string) bool {
	if len(known) == 0 {
		return false
	}
	for _, id := range known {
		if id != quizID && !prior[id].Completed {
			return false
		}
	}
	return true
}
