package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"workbridge/internal/job"
	"workbridge/internal/profile"
	"workbridge/pkg/domain"
)

type EngineSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func eligibleProfile() profile.CandidateProfile {
	return profile.CandidateProfile{
		ID:                  domain.NewCandidateID(),
		Name:                "Avery",
		Contact:             "avery@example.com",
		Location:            "Berlin, DE",
		Skills:              []string{"JavaScript", "React", "Node.js"},
		AccommodationNeeds:  []string{"Flexible hours"},
		AssessmentCompleted: true,
		Privacy:             profile.PrivacySettings{Visible: true},
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
}

func openJob() job.Job {
	return job.Job{
		ID:             domain.NewJobID(),
		OrganizationID: domain.NewOrganizationID(),
		Title:          "Frontend Engineer",
		RequiredSkills: []string{"JavaScript", "React", "CSS"},
		Accommodations: []string{"Flexible hours", "Remote work"},
		WorkMode:       job.WorkModeRemote,
		Location:       "Berlin, DE",
		Status:         job.StatusOpen,
		CreatedAt:      time.Now(),
	}
}

func (s *EngineSuite) TestEligible() {
	s.Run("visible assessed candidate and open job are eligible", func() {
		s.True(Eligible(eligibleProfile(), openJob()))
	})

	s.Run("hidden candidate is not eligible", func() {
		p := eligibleProfile()
		p.Privacy.Visible = false
		s.False(Eligible(p, openJob()))
	})

	s.Run("unassessed candidate is not eligible", func() {
		p := eligibleProfile()
		p.AssessmentCompleted = false
		s.False(Eligible(p, openJob()))
	})

	s.Run("erased candidate is not eligible", func() {
		p := eligibleProfile()
		now := time.Now()
		p.ErasedAt = &now
		s.False(Eligible(p, openJob()))
	})

	s.Run("closed job is not eligible", func() {
		j := openJob()
		j.Status = job.StatusClosed
		s.False(Eligible(eligibleProfile(), j))
	})

	s.Run("job without accommodations is not eligible", func() {
		j := openJob()
		j.Accommodations = nil
		s.False(Eligible(eligibleProfile(), j))
	})
}

func (s *EngineSuite) TestScoreWorkedExample() {
	p := eligibleProfile()
	j := openJob()

	total, b := Score(p, j)

	// Two of three required skills overlap, three candidate skills against
	// three required earns no breadth bonus.
	s.Equal(67, b.Skills)
	s.Equal(100, b.Accommodations)
	s.Equal(100, b.Location)
	s.Greater(total, Threshold)
}

func (s *EngineSuite) TestScoreDeterminismAndRange() {
	p := eligibleProfile()
	j := openJob()

	first, firstBreakdown := Score(p, j)
	for i := 0; i < 50; i++ {
		total, b := Score(p, j)
		s.Equal(first, total)
		s.Equal(firstBreakdown, b)
	}

	for _, sub := range []int{firstBreakdown.Skills, firstBreakdown.Accommodations, firstBreakdown.Preferences, firstBreakdown.Location} {
		s.GreaterOrEqual(sub, 0)
		s.LessOrEqual(sub, 100)
	}
	s.GreaterOrEqual(first, 0)
	s.LessOrEqual(first, 100)
}

func (s *EngineSuite) TestScoreSkills() {
	s.Run("no required skills scores full", func() {
		s.Equal(100, scoreSkills([]string{"Go"}, nil))
	})

	s.Run("breadth bonus when candidate lists more skills than required", func() {
		got := scoreSkills([]string{"Go", "SQL", "Docker"}, []string{"Go", "SQL"})
		s.Equal(100, got) // 100 base, bonus capped
	})

	s.Run("bonus applies on partial overlap", func() {
		got := scoreSkills([]string{"Go", "Rust", "Docker"}, []string{"Go", "SQL"})
		s.Equal(60, got) // 50 + 10 breadth bonus
	})

	s.Run("overlap is case-insensitive and substring based", func() {
		s.Equal(100, scoreSkills([]string{"javascript"}, []string{"JavaScript"}))
		s.Equal(100, scoreSkills([]string{"React Native"}, []string{"react"}))
	})
}

func (s *EngineSuite) TestScoreAccommodations() {
	s.Run("no declared needs is trivially compatible", func() {
		s.Equal(100, scoreAccommodations(nil, nil))
	})

	s.Run("needs against empty offer scores zero", func() {
		s.Equal(0, scoreAccommodations([]string{"Quiet workspace"}, nil))
	})

	s.Run("fraction of needs met", func() {
		got := scoreAccommodations(
			[]string{"Quiet workspace", "Flexible hours"},
			[]string{"Flexible hours"},
		)
		s.Equal(50, got)
	})
}

func (s *EngineSuite) TestScorePreferences() {
	base := openJob()
	base.WorkMode = job.WorkModeHybrid
	base.TeamSize = job.TeamSizeMedium

	s.Run("no declared preferences is neutral", func() {
		s.Equal(50, scorePreferences(profile.Preferences{}, base))
	})

	s.Run("full preference alignment", func() {
		pref := profile.Preferences{WorkMode: job.WorkModeHybrid, FlexibleHours: true, TeamSize: job.TeamSizeMedium}
		s.Equal(100, scorePreferences(pref, base))
	})

	s.Run("hybrid preference earns partial credit against remote job", func() {
		j := base
		j.WorkMode = job.WorkModeRemote
		pref := profile.Preferences{WorkMode: job.WorkModeHybrid}
		// 20 work mode + 30 flexible (not needed) + 30 team (undeclared)
		s.Equal(80, scorePreferences(pref, j))
	})

	s.Run("adjacent team size earns half credit", func() {
		pref := profile.Preferences{TeamSize: job.TeamSizeSmall}
		j := base
		j.Accommodations = nil
		// 40 work mode (undeclared) + 30 flexible (not needed) + 15 adjacent
		s.Equal(85, scorePreferences(pref, j))
	})

	s.Run("flexible hours preference requires job to offer them", func() {
		pref := profile.Preferences{FlexibleHours: true}
		withFlex := base
		s.Equal(100, scorePreferences(pref, withFlex))

		withoutFlex := base
		withoutFlex.Accommodations = []string{"Quiet workspace"}
		s.Equal(70, scorePreferences(pref, withoutFlex))
	})
}

func (s *EngineSuite) TestScoreLocation() {
	p := eligibleProfile()

	s.Run("remote job is always full", func() {
		j := openJob()
		j.Location = "Lisbon, PT"
		s.Equal(100, scoreLocation(p, j))
	})

	s.Run("remote-required candidate against onsite job is zero", func() {
		j := openJob()
		j.WorkMode = job.WorkModeOnsite
		cp := p
		cp.Preferences.WorkMode = job.WorkModeRemote
		s.Equal(0, scoreLocation(cp, j))
	})

	s.Run("unspecified location is neutral", func() {
		j := openJob()
		j.WorkMode = job.WorkModeOnsite
		j.Location = ""
		s.Equal(50, scoreLocation(p, j))
	})

	s.Run("shared city segment is full", func() {
		j := openJob()
		j.WorkMode = job.WorkModeOnsite
		j.Location = "Berlin, Germany"
		s.Equal(100, scoreLocation(p, j))
	})

	s.Run("different city with hybrid job is half", func() {
		j := openJob()
		j.WorkMode = job.WorkModeHybrid
		j.Location = "Hamburg, DE2"
		cp := p
		cp.Location = "Munich"
		s.Equal(50, scoreLocation(cp, j))
	})

	s.Run("different city onsite is low", func() {
		j := openJob()
		j.WorkMode = job.WorkModeOnsite
		j.Location = "Hamburg"
		cp := p
		cp.Location = "Munich"
		s.Equal(20, scoreLocation(cp, j))
	})
}

func (s *EngineSuite) TestJustify() {
	s.Run("reproducible from the breakdown alone", func() {
		b := Breakdown{Skills: 90, Accommodations: 70, Preferences: 50, Location: 100}
		first := Justify(b)
		for i := 0; i < 10; i++ {
			s.Equal(first, Justify(b))
		}
	})

	s.Run("strong and good factors are named", func() {
		b := Breakdown{Skills: 85, Accommodations: 65, Preferences: 10, Location: 10}
		text := Justify(b)
		s.Contains(text, "strong skill alignment")
		s.Contains(text, "good accommodation fit")
	})

	s.Run("falls back when nothing clears sixty", func() {
		b := Breakdown{Skills: 40, Accommodations: 50, Preferences: 30, Location: 20}
		s.Equal("Moderate overall compatibility across all factors.", Justify(b))
	})
}
