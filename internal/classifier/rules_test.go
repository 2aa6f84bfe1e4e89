package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScoreByRules(t *testing.T) {
	t.Run("clean posting scores base plus accommodation bonus", func(t *testing.T) {
		v := ScoreByRules(Posting{
			Title:          "Backend Engineer",
			Description:    "Build and maintain services.",
			Accommodations: []string{"Flexible hours"},
		})
		require.Equal(t, 80, v.Score)
		require.Empty(t, v.Issues)
		require.Equal(t, "rules", v.Source)
	})

	t.Run("each exclusionary term costs points and yields an issue", func(t *testing.T) {
		v := ScoreByRules(Posting{
			Title:       "Rockstar developer",
			Description: "Join our fast-paced team.",
		})
		require.Equal(t, 40, v.Score)
		require.Len(t, v.Issues, 2)
	})

	t.Run("matching is case-insensitive across title and description", func(t *testing.T) {
		v := ScoreByRules(Posting{Title: "We want a NINJA"})
		require.Len(t, v.Issues, 1)
		require.Contains(t, v.Issues[0], "ninja")
	})

	t.Run("accommodation bonus is capped", func(t *testing.T) {
		many := make([]string, 10)
		for i := range many {
			many[i] = "accommodation"
		}
		v := ScoreByRules(Posting{Title: "Engineer", Accommodations: many})
		require.Equal(t, 100, v.Score)
	})

	t.Run("score never drops below zero", func(t *testing.T) {
		v := ScoreByRules(Posting{
			Description: "rockstar ninja, fast-paced and high-pressure, thick skin, " +
				"no hand-holding for digital native able-bodied hires",
		})
		require.Equal(t, 0, v.Score)
	})

	t.Run("deterministic with sorted issues", func(t *testing.T) {
		p := Posting{
			Title:          "Ninja rockstar",
			Description:    "high-pressure, fast-paced",
			Accommodations: []string{"Quiet room"},
		}
		first := ScoreByRules(p)
		for i := 0; i < 20; i++ {
			require.Equal(t, first, ScoreByRules(p))
		}
		require.True(t, sortedStrings(first.Issues))
	})
}

func sortedStrings(ss []string) bool {
	for i := 1; i < len(ss); i++ {
		if ss[i-1] > ss[i] {
			return false
		}
	}
	return true
}

type flakyModel struct {
	err     error
	verdict Verdict
	calls   int
}

func (m *flakyModel) Classify(context.Context, Posting) (Verdict, error) {
	m.calls++
	if m.err != nil {
		return Verdict{}, m.err
	}
	return m.verdict, nil
}

func TestServiceClassify(t *testing.T) {
	posting := Posting{Title: "Engineer", Accommodations: []string{"Flexible hours"}}

	t.Run("prefers the model verdict", func(t *testing.T) {
		model := &flakyModel{verdict: Verdict{Score: 91}}
		svc := NewService(model, nil, 0, 0, zap.NewNop(), nil)

		v := svc.Classify(context.Background(), posting)
		require.Equal(t, 91, v.Score)
		require.Equal(t, "model", v.Source)
	})

	t.Run("falls back to rules when the model errors", func(t *testing.T) {
		model := &flakyModel{err: errors.New("upstream 503")}
		svc := NewService(model, nil, 0, 0, zap.NewNop(), nil)

		v := svc.Classify(context.Background(), posting)
		require.Equal(t, "rules", v.Source)
		require.Equal(t, 1, model.calls)
	})

	t.Run("works with no model configured", func(t *testing.T) {
		svc := NewService(nil, nil, 0, 0, zap.NewNop(), nil)
		v := svc.Classify(context.Background(), posting)
		require.Equal(t, "rules", v.Source)
	})
}

func TestCacheKeyDistinguishesFieldBoundaries(t *testing.T) {
	a := cacheKey(Posting{Title: "ab", Description: "c"})
	b := cacheKey(Posting{Title: "a", Description: "bc"})
	require.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "classifier:verdict:"))
}
