package domain

import "time"

const dayLayout = "2006-01-02"

// Record folds a finished session into the running totals. minutes is the
// session's study time and day the calendar day it happened on.
//
// The streak grows when day follows LastStudyDate, holds when it is the same
// day, and restarts otherwise. Sessions dated before LastStudyDate update the
// totals but leave the streak alone.
func (st *Statistics) Record(s SessionRecord, minutes int, day time.Time) {
	st.QuestionsAnswered += len(s.Questions)
	st.CorrectAnswers += s.Correct()
	if st.QuestionsAnswered > 0 {
		st.AverageScore = float64(st.CorrectAnswers) / float64(st.QuestionsAnswered) * 100
	}
	if minutes > 0 {
		st.TotalTimeStudied += minutes
	}

	today := day.Format(dayLayout)
	last, err := time.ParseInLocation(dayLayout, st.LastStudyDate, day.Location())
	switch {
	case st.LastStudyDate == "" || err != nil:
		st.CurrentStreak = 1
	case today == st.LastStudyDate:
		if st.CurrentStreak == 0 {
			st.CurrentStreak = 1
		}
	case today < st.LastStudyDate:
		return
	case last.AddDate(0, 0, 1).Format(dayLayout) == today:
		st.CurrentStreak++
	default:
		st.CurrentStreak = 1
	}
	st.LastStudyDate = today
}
