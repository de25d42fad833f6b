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

type ScoreRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.ScoreRepository
}

func (s *ScoreRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewScoreRepository(s.db)
}

func (s *ScoreRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ScoreRepositorySuite) TestBeatTheClock_Ordering() {
	ctx := context.Background()

	insert := func(correct int, accuracy, timeUsed float64) {
		_, err := s.repo.InsertBeatTheClock(ctx, models.BeatTheClockScore{
			CorrectAnswers:  correct,
			TotalQuestions:  correct + 2,
			Accuracy:        accuracy,
			TimeUsed:        timeUsed,
			PointsPerSecond: float64(correct) / timeUsed,
			Difficulty:      models.DifficultyMedium,
			AchievedAt:      time.Now(),
		})
		s.Require().NoError(err)
	}

	insert(10, 0.8, 60)
	insert(15, 0.9, 60)
	insert(15, 0.95, 60)
	insert(15, 0.95, 58)

	top, err := s.repo.TopBeatTheClock(ctx, models.DifficultyMedium, 3)
	s.Require().NoError(err)
	s.Require().Len(top, 3)

	// Correct count first, then accuracy, then time used.
	s.Assert().Equal(15, top[0].CorrectAnswers)
	s.Assert().InDelta(0.95, top[0].Accuracy, 0.001)
	s.Assert().InDelta(58.0, top[0].TimeUsed, 0.001)
	s.Assert().InDelta(60.0, top[1].TimeUsed, 0.001)
	s.Assert().InDelta(0.9, top[2].Accuracy, 0.001)
}

func (s *ScoreRepositorySuite) TestBeatTheClock_DifficultyIsolation() {
	ctx := context.Background()

	_, err := s.repo.InsertBeatTheClock(ctx, models.BeatTheClockScore{
		CorrectAnswers: 10, Difficulty: models.DifficultyEasy, AchievedAt: time.Now(),
	})
	s.Require().NoError(err)

	top, err := s.repo.TopBeatTheClock(ctx, models.DifficultyHard, 10)
	s.Require().NoError(err)
	s.Assert().Empty(top)
}

func (s *ScoreRepositorySuite) TestBeatTheClock_Prune() {
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := s.repo.InsertBeatTheClock(ctx, models.BeatTheClockScore{
			CorrectAnswers: i,
			Accuracy:       0.5,
			TimeUsed:       60,
			Difficulty:     models.DifficultyMedium,
			AchievedAt:     time.Now(),
		})
		s.Require().NoError(err)
	}

	pruned, err := s.repo.PruneBeatTheClock(ctx, models.DifficultyMedium, 25)
	s.Require().NoError(err)
	s.Assert().Equal(5, pruned)

	top, err := s.repo.TopBeatTheClock(ctx, models.DifficultyMedium, 100)
	s.Require().NoError(err)
	s.Require().Len(top, 25)
	// The weakest runs are the ones dropped.
	s.Assert().Equal(29, top[0].CorrectAnswers)
	s.Assert().Equal(5, top[24].CorrectAnswers)
}

func (s *ScoreRepositorySuite) TestSpeedrun_OrderingAndPrune() {
	ctx := context.Background()

	insert := func(rating int, completed bool, completionTime float64) {
		_, err := s.repo.InsertSpeedrun(ctx, models.SpeedrunScore{
			CompletionTime:    completionTime,
			QuestionsAnswered: 25,
			CorrectAnswers:    25,
			Accuracy:          1.0,
			IsCompleted:       completed,
			Rating:            rating,
			Tier:              models.TierForRating(rating),
			Difficulty:        models.DifficultyHard,
			AchievedAt:        time.Now(),
		})
		s.Require().NoError(err)
	}

	insert(700, true, 110)
	insert(900, true, 95)
	insert(900, true, 90)
	insert(100, false, 40)

	top, err := s.repo.TopSpeedrun(ctx, models.DifficultyHard, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 4)
	s.Assert().Equal(900, top[0].Rating)
	s.Assert().InDelta(90.0, top[0].CompletionTime, 0.001)
	s.Assert().InDelta(95.0, top[1].CompletionTime, 0.001)
	s.Assert().Equal(700, top[2].Rating)
	s.Assert().False(top[3].IsCompleted)

	pruned, err := s.repo.PruneSpeedrun(ctx, models.DifficultyHard, 2)
	s.Require().NoError(err)
	s.Assert().Equal(2, pruned)

	top, err = s.repo.TopSpeedrun(ctx, models.DifficultyHard, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Assert().Equal(models.TierForRating(900), top[0].Tier)
}

func TestScoreRepositorySuite(t *testing.T) {
	suite.Run(t, new(ScoreRepositorySuite))
}
