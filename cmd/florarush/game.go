package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	apperrors "github.com/tbueno/florarush/internal/errors"
	"github.com/tbueno/florarush/internal/models"
	"github.com/tbueno/florarush/internal/session"
)

// game is the terminal front end for one player. It owns stdin/stdout; all
// rules live in the session machine.
type game struct {
	machine *session.Machine
	in      *bufio.Scanner
	out     io.Writer
	expired atomic.Bool
}

func newGame(machine *session.Machine, in io.Reader, out io.Writer) *game {
	return &game{
		machine: machine,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

func (g *game) run(ctx context.Context) error {
	if restored, err := g.machine.RestoreActive(ctx); err != nil {
		fmt.Fprintf(g.out, "could not restore previous session: %v\n", err)
	} else if restored {
		fmt.Fprintln(g.out, "Previous session restored (paused). Press enter to resume.")
		g.readLine()
		if err := g.machine.Resume(); err != nil {
			return err
		}
		return g.playRounds(ctx)
	}

	for {
		mode, difficulty, ok := g.promptSetup()
		if !ok {
			return nil
		}
		if _, err := g.machine.Start(mode, difficulty); err != nil {
			fmt.Fprintf(g.out, "could not start session: %v\n", err)
			continue
		}
		if err := g.playRounds(ctx); err != nil {
			return err
		}
		fmt.Fprint(g.out, "\nPlay again? (y/n) ")
		if !strings.HasPrefix(strings.ToLower(g.readLine()), "y") {
			return nil
		}
	}
}

func (g *game) promptSetup() (models.GameMode, models.Difficulty, bool) {
	fmt.Fprintln(g.out, "\nFloraRush")
	fmt.Fprintln(g.out, "  1) Beat the Clock (60 seconds)")
	fmt.Fprintln(g.out, "  2) Speedrun (25 questions)")
	fmt.Fprint(g.out, "Mode (1/2, q quits): ")

	var mode models.GameMode
	switch strings.TrimSpace(g.readLine()) {
	case "1":
		mode = models.ModeBeatTheClock
	case "2":
		mode = models.ModeSpeedrun
	default:
		return "", "", false
	}

	fmt.Fprint(g.out, "Difficulty (easy/medium/hard/expert): ")
	difficulty, err := models.ParseDifficulty(strings.TrimSpace(g.readLine()))
	if err != nil {
		fmt.Fprintln(g.out, "unknown difficulty, using medium")
		difficulty = models.DifficultyMedium
	}
	return mode, difficulty, true
}

func (g *game) playRounds(ctx context.Context) error {
	g.expired.Store(false)
	go g.watchTicks()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if g.expired.Load() {
			fmt.Fprintln(g.out, "\nTime's up!")
			break
		}

		question, err := g.machine.NextQuestion(ctx)
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeInvalidState) {
				// Budget exhausted or the window expired mid-fetch.
				break
			}
			if apperrors.IsNoData(err) {
				fmt.Fprintln(g.out, "No plants available; check your connection and try again later.")
				g.machine.Abandon(ctx)
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return err
		}

		g.printQuestion(question)
		answered, quit := g.answerLoop(ctx, question)
		if quit {
			g.machine.Abandon(ctx)
			return nil
		}
		if !answered {
			break
		}
	}

	result, err := g.machine.Complete(ctx)
	if err != nil {
		return err
	}
	g.printResult(result)
	return nil
}

// answerLoop reads input for one question. Returns answered=false once the
// session can no longer accept the answer, quit=true on an explicit quit.
func (g *game) answerLoop(ctx context.Context, question *models.Question) (answered, quit bool) {
	for {
		fmt.Fprint(g.out, "Answer (1-4, p pauses, q quits): ")
		input := strings.TrimSpace(strings.ToLower(g.readLine()))

		switch input {
		case "q":
			return false, true
		case "p":
			if err := g.machine.Pause(ctx); err != nil {
				fmt.Fprintf(g.out, "%v\n", err)
				continue
			}
			fmt.Fprint(g.out, "Paused. Press enter to resume.")
			g.readLine()
			if err := g.machine.Resume(); err != nil {
				fmt.Fprintf(g.out, "%v\n", err)
			}
			continue
		}

		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(question.Options) {
			fmt.Fprintln(g.out, "pick an option between 1 and 4")
			continue
		}

		answer, err := g.machine.SubmitAnswer(question.Options[n-1])
		if err != nil {
			if apperrors.HasCode(err, apperrors.ErrCodeInvalidState) {
				return false, false
			}
			fmt.Fprintf(g.out, "%v\n", err)
			return false, false
		}
		if answer.IsCorrect {
			fmt.Fprintf(g.out, "Correct! (%.1fs)\n", answer.TimeToAnswer)
		} else {
			fmt.Fprintf(g.out, "Wrong, it was %s (%.1fs)\n", answer.CorrectText, answer.TimeToAnswer)
		}
		return true, false
	}
}

func (g *game) printQuestion(q *models.Question) {
	fmt.Fprintf(g.out, "\nQuestion %d: which plant is this?\n", q.Index+1)
	fmt.Fprintf(g.out, "  %s\n", q.Plant.ImageURL)
	if q.Plant.Family != "" {
		fmt.Fprintf(g.out, "  family: %s, rarity: %s\n", q.Plant.Family, q.Plant.Rarity)
	}
	for i, opt := range q.Options {
		fmt.Fprintf(g.out, "  %d) %s\n", i+1, opt)
	}
}

func (g *game) printResult(result *session.Result) {
	s := result.Session
	fmt.Fprintf(g.out, "\nSession over: %d/%d correct (%.0f%% accuracy) in %.1fs\n",
		s.CorrectAnswers(), s.QuestionsAnswered(), s.Accuracy()*100, s.TotalGameTime)

	if result.BeatTheClock != nil {
		fmt.Fprintf(g.out, "Score: %s", result.BeatTheClock.DisplayScore())
		if result.BeatTheClock.IsNewRecord {
			fmt.Fprint(g.out, "  ** new personal best **")
		}
		fmt.Fprintln(g.out)
	}
	if result.Speedrun != nil {
		fmt.Fprintf(g.out, "Rating: %d (%s)", result.Speedrun.Rating, result.Speedrun.Tier)
		if !result.Speedrun.IsCompleted {
			fmt.Fprint(g.out, "  [incomplete run]")
		}
		if result.Speedrun.IsNewRecord {
			fmt.Fprint(g.out, "  ** new personal best **")
		}
		fmt.Fprintln(g.out)
	}

	fmt.Fprintf(g.out, "Trophies: +%d\n", result.Trophy.Total)
	for _, warning := range result.Validation.Warnings {
		fmt.Fprintf(g.out, "note: %s\n", warning)
	}
}

// watchTicks drains the timer channel for the current run and latches the
// expiry flag. The channel closes when the timer stops.
func (g *game) watchTicks() {
	for tick := range g.machine.Timer().Ticks() {
		if tick.IsExpired {
			g.expired.Store(true)
		}
	}
}

func (g *game) readLine() string {
	if !g.in.Scan() {
		return "q"
	}
	return g.in.Text()
}
