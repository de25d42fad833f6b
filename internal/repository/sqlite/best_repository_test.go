package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/repository"
	"github.com/tbueno/florarush/internal/repository/sqlite"
	"github.com/tbueno/florarush/internal/testutil"
)

type PersonalBestRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.PersonalBestRepository
}

func (s *PersonalBestRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewPersonalBestRepository(s.db)
}

func (s *PersonalBestRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *PersonalBestRepositorySuite) TestGet_Empty() {
	best, err := s.repo.Get(context.Background(), models.ModeBeatTheClock, models.DifficultyEasy)
	s.Require().NoError(err)
	s.Assert().Nil(best)
}

func (s *PersonalBestRepositorySuite) TestPut_Overwrites() {
	ctx := context.Background()

	s.Require().NoError(s.repo.Put(ctx, models.PersonalBest{
		Mode:           models.ModeBeatTheClock,
		Difficulty:     models.DifficultyMedium,
		CorrectAnswers: 12,
		Score:          12,
		Accuracy:       0.8,
		AchievedAt:     time.Now(),
	}))
	s.Require().NoError(s.repo.Put(ctx, models.PersonalBest{
		Mode:           models.ModeBeatTheClock,
		Difficulty:     models.DifficultyMedium,
		CorrectAnswers: 17,
		Score:          17,
		Accuracy:       0.85,
		AchievedAt:     time.Now(),
	}))

	best, err := s.repo.Get(ctx, models.ModeBeatTheClock, models.DifficultyMedium)
	s.Require().NoError(err)
	s.Require().NotNil(best)
	s.Assert().Equal(17, best.CorrectAnswers)

	all, err := s.repo.All(ctx)
	s.Require().NoError(err)
	s.Assert().Len(all, 1, "one row per (mode, difficulty)")
}

func (s *PersonalBestRepositorySuite) TestPairsAreIndependent() {
	ctx := context.Background()

	s.Require().NoError(s.repo.Put(ctx, models.PersonalBest{
		Mode: models.ModeBeatTheClock, Difficulty: models.DifficultyEasy, CorrectAnswers: 20, AchievedAt: time.Now(),
	}))
	s.Require().NoError(s.repo.Put(ctx, models.PersonalBest{
		Mode: models.ModeSpeedrun, Difficulty: models.DifficultyEasy, Rating: 640, AchievedAt: time.Now(),
	}))

	btc, err := s.repo.Get(ctx, models.ModeBeatTheClock, models.DifficultyEasy)
	s.Require().NoError(err)
	s.Require().NotNil(btc)
	s.Assert().Equal(20, btc.CorrectAnswers)

	sr, err := s.repo.Get(ctx, models.ModeSpeedrun, models.DifficultyEasy)
	s.Require().NoError(err)
	s.Require().NotNil(sr)
	s.Assert().Equal(640, sr.Rating)
}

func (s *PersonalBestRepositorySuite) TestReset() {
	ctx := context.Background()

	s.Require().NoError(s.repo.Put(ctx, models.PersonalBest{
		Mode: models.ModeSpeedrun, Difficulty: models.DifficultyHard, Rating: 700, AchievedAt: time.Now(),
	}))
	s.Require().NoError(s.repo.Reset(ctx, models.ModeSpeedrun, models.DifficultyHard))

	best, err := s.repo.Get(ctx, models.ModeSpeedrun, models.DifficultyHard)
	s.Require().NoError(err)
	s.Assert().Nil(best)
}

func TestPersonalBestRepositorySuite(t *testing.T) {
	suite.Run(t, new(PersonalBestRepositorySuite))
}
