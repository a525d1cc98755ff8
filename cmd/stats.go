package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prepia/tutor/internal/difficulty"
	"github.com/prepia/tutor/internal/domain"
	"github.com/prepia/tutor/internal/performance"
	"github.com/prepia/tutor/internal/store"
	"github.com/prepia/tutor/internal/tutor"
	"github.com/prepia/tutor/internal/ui/theme"
)

var statsCmd = &cobra.Command{
	Use:   "stats <userID>",
	Short: "Show a learner's statistics, difficulty tier and weak topics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()
		u, err := s.GetUser(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("learner %q not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("get learner: %w", err)
		}

		cfg := tutor.DefaultConfig()
		recent, err := s.RecentSessions(ctx, u.ID, cfg.RecentWindow)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}
		printStats(cmd.OutOrStdout(), u, recent, cfg)
		return nil
	},
}

func printStats(w io.Writer, u *domain.User, recent []domain.SessionRecord, cfg tutor.Config) {
	snap := performance.Aggregate(recent)
	accuracy := snap.Accuracy()
	weak := performance.WeakTopics(snap.TopicStats, cfg.Thresholds)

	st := u.Statistics
	lines := []string{
		theme.Title.Render(u.Name) + " " + theme.Hint.Render("("+u.LevelOrDefault()+")"),
		"",
		fmt.Sprintf("%s %d (%d correctas)", theme.Label.Render("Preguntas respondidas:"), st.QuestionsAnswered, st.CorrectAnswers),
		fmt.Sprintf("%s %.1f%%", theme.Label.Render("Promedio histórico:   "), st.AverageScore),
		fmt.Sprintf("%s %d minutos", theme.Label.Render("Tiempo de estudio:    "), st.TotalTimeStudied),
		fmt.Sprintf("%s %d días", theme.Label.Render("Racha actual:         "), st.CurrentStreak),
		"",
		fmt.Sprintf("%s %.1f%% en %d sesiones", theme.Label.Render("Precisión reciente:   "), accuracy, len(recent)),
		fmt.Sprintf("%s %s", theme.Label.Render("Dificultad adaptativa:"), theme.Tier(difficulty.Select(accuracy))),
	}

	if len(weak) == 0 {
		lines = append(lines, fmt.Sprintf("%s %s", theme.Label.Render("Temas débiles:        "), theme.Hint.Render("ninguno")))
	} else {
		lines = append(lines, fmt.Sprintf("%s %s", theme.Label.Render("Temas débiles:        "), theme.Incorrect.Render(strings.Join(weak, ", "))))
	}

	subjects := make([]string, 0, len(u.Scores))
	for subject := range u.Scores {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	lines = append(lines, "", theme.Heading.Render("Puntajes por materia"))
	for _, subject := range subjects {
		score := u.Scores[subject]
		mark := theme.Mark(score >= cfg.WeakSubjectScore)
		lines = append(lines, fmt.Sprintf("  %s %-24s %5.1f%%", mark, subject, score))
	}

	fmt.Fprintln(w, theme.Card.Render(strings.Join(lines, "\n")))
}
