package records_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/records"
	"github.com/tbueno/florarush/internal/repository"
	"github.com/tbueno/florarush/internal/repository/sqlite"
	"github.com/tbueno/florarush/internal/testutil"
)

type ExporterSuite struct {
	suite.Suite
	db       *sql.DB
	bests    repository.PersonalBestRepository
	scores   repository.ScoreRepository
	history  repository.HistoryRepository
	exporter *records.Exporter
}

func (s *ExporterSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.bests = sqlite.NewPersonalBestRepository(s.db)
	s.scores = sqlite.NewScoreRepository(s.db)
	s.history = sqlite.NewHistoryRepository(s.db)
	s.exporter = records.NewExporter(s.bests, s.scores, s.history)
}

func (s *ExporterSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *ExporterSuite) seed() {
	ctx := context.Background()

	s.Require().NoError(s.bests.Put(ctx, models.PersonalBest{
		Mode: models.ModeBeatTheClock, Difficulty: models.DifficultyMedium,
		CorrectAnswers: 14, Score: 14, Accuracy: 0.9, AchievedAt: time.Now(),
	}))
	_, err := s.scores.InsertBeatTheClock(ctx, models.BeatTheClockScore{
		CorrectAnswers: 14, TotalQuestions: 16, Accuracy: 0.875, TimeUsed: 60,
		Difficulty: models.DifficultyMedium, AchievedAt: time.Now(),
	})
	s.Require().NoError(err)
	_, err = s.scores.InsertSpeedrun(ctx, models.SpeedrunScore{
		CompletionTime: 100, QuestionsAnswered: 25, CorrectAnswers: 25, Accuracy: 1,
		IsCompleted: true, Rating: 780, Tier: models.TierDiamond,
		Difficulty: models.DifficultyHard, AchievedAt: time.Now(),
	})
	s.Require().NoError(err)
	s.Require().NoError(s.history.Append(ctx, models.GameHistoryEntry{
		ID: "g1", Mode: models.ModeBeatTheClock, Difficulty: models.DifficultyMedium,
		Score: 14, CorrectAnswers: 14, QuestionsAnswered: 16, Accuracy: 0.875,
		TotalGameTime: 60, PlayedAt: time.Now(),
	}, 100))
}

func (s *ExporterSuite) TestExport_Shape() {
	s.seed()

	blob, err := s.exporter.Export(context.Background())
	s.Require().NoError(err)

	var bundle records.Bundle
	s.Require().NoError(json.Unmarshal(blob, &bundle))
	s.Assert().Equal(1, bundle.Version)
	s.Assert().Len(bundle.PersonalBests, 1)
	s.Assert().Len(bundle.BeatTheClockScores[models.DifficultyMedium], 1)
	s.Assert().Len(bundle.SpeedrunScores[models.DifficultyHard], 1)
	s.Assert().Len(bundle.History, 1)
}

func (s *ExporterSuite) TestRoundTrip() {
	s.seed()
	ctx := context.Background()

	blob, err := s.exporter.Export(ctx)
	s.Require().NoError(err)

	// Import into a brand new store.
	db2 := testutil.NewTestDB(s.T())
	defer testutil.MustClose(s.T(), db2)
	exporter2 := records.NewExporter(
		sqlite.NewPersonalBestRepository(db2),
		sqlite.NewScoreRepository(db2),
		sqlite.NewHistoryRepository(db2),
	)
	s.Require().NoError(exporter2.Import(ctx, blob))

	blob2, err := exporter2.Export(ctx)
	s.Require().NoError(err)

	var bundle records.Bundle
	s.Require().NoError(json.Unmarshal(blob2, &bundle))
	s.Assert().Len(bundle.PersonalBests, 1)
	s.Assert().Equal(14, bundle.PersonalBests[0].CorrectAnswers)
	s.Assert().Equal(780, bundle.SpeedrunScores[models.DifficultyHard][0].Rating)
	s.Assert().Len(bundle.History, 1)
}

func (s *ExporterSuite) TestImport_PrunesLeaderboards() {
	ctx := context.Background()

	bundle := records.Bundle{Version: 1, ExportedAt: time.Now(),
		BeatTheClockScores: map[models.Difficulty][]models.BeatTheClockScore{},
		SpeedrunScores:     map[models.Difficulty][]models.SpeedrunScore{},
	}
	for i := 0; i < 40; i++ {
		bundle.BeatTheClockScores[models.DifficultyEasy] = append(
			bundle.BeatTheClockScores[models.DifficultyEasy],
			models.BeatTheClockScore{CorrectAnswers: i, TimeUsed: 60, Difficulty: models.DifficultyEasy, AchievedAt: time.Now()},
		)
	}
	blob, err := json.Marshal(bundle)
	s.Require().NoError(err)

	s.Require().NoError(s.exporter.Import(ctx, blob))

	top, err := s.scores.TopBeatTheClock(ctx, models.DifficultyEasy, 100)
	s.Require().NoError(err)
	s.Assert().Len(top, 25)
	s.Assert().Equal(39, top[0].CorrectAnswers)
}

func (s *ExporterSuite) TestImport_RejectsGarbage() {
	err := s.exporter.Import(context.Background(), []byte("{not json"))
	s.Require().Error(err)
}

func TestExporterSuite(t *testing.T) {
	suite.Run(t, new(ExporterSuite))
}
