package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quizwire/quizwire/presenter"
	"github.com/quizwire/quizwire/quiz/config"
	"github.com/quizwire/quizwire/quiz/data"
	"github.com/quizwire/quizwire/quiz/session"
)

// quizService is the canonical QuizService implementation.
type quizService struct {
	controller *session.Controller
	repo       *data.Repository
	store      *config.Store
	transcript *presenter.Memory
	logger     *slog.Logger
}

// NewQuizService wires the controller, repository, settings store, and
// transcript into a QuizService.
func NewQuizService(controller *session.Controller, repo *data.Repository, store *config.Store, transcript *presenter.Memory, logger *slog.Logger) QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	return &quizService{
		controller: controller,
		repo:       repo,
		store:      store,
		transcript: transcript,
		logger:     logger,
	}
}

func (s *quizService) StartQuiz(ctx context.Context, channelKey, quizName string) (*StartResult, error) {
	snap, err := s.controller.Start(ctx, channelKey, quizName)
	if err != nil {
		return nil, err
	}
	return &StartResult{
		Session: snap,
		Message: fmt.Sprintf("Starting quiz '%s': %d questions, %d seconds each.",
			snap.QuizName, snap.Total, snap.Settings.TimerDuration),
	}, nil
}

func (s *quizService) StopQuiz(ctx context.Context, channelKey string) (*StopResult, error) {
	snap, err := s.controller.Stop(ctx, channelKey)
	if err != nil {
		return nil, err
	}
	return &StopResult{
		Session: snap,
		Message: fmt.Sprintf("Quiz '%s' stopped at question %d of %d.",
			snap.QuizName, snap.Current, snap.Total),
	}, nil
}

func (s *quizService) PauseQuiz(ctx context.Context, channelKey string) (*ControlResult, error) {
	res, err := s.controller.Pause(ctx, channelKey)
	if err != nil {
		return nil, err
	}
	if res.AlreadyPaused {
		return &ControlResult{Message: "The quiz is already paused."}, nil
	}
	return &ControlResult{Changed: true, Message: "Quiz paused. Use resume to continue."}, nil
}

func (s *quizService) ResumeQuiz(ctx context.Context, channelKey string) (*ControlResult, error) {
	res, err := s.controller.Resume(ctx, channelKey)
	if err != nil {
		return nil, err
	}
	if res.NotPaused {
		return &ControlResult{Message: "The quiz is not paused."}, nil
	}
	return &ControlResult{Changed: true, Message: "Quiz resumed."}, nil
}

func (s *quizService) QuizStatus(ctx context.Context, channelKey string) (*StatusResult, error) {
	snap, err := s.controller.Progress(channelKey)
	if err != nil {
		return nil, err
	}

	state := "running"
	if snap.Paused {
		state = "paused"
	}
	msg := fmt.Sprintf("Quiz '%s' %s: question %d of %d.", snap.QuizName, state, snap.Current, snap.Total)
	if snap.Timer != nil {
		msg = fmt.Sprintf("%s %ds remaining.", msg, snap.Timer.Remaining)
	}

	return &StatusResult{
		Session: snap,
		Errors:  s.controller.Errors(channelKey),
		Message: msg,
	}, nil
}

func (s *quizService) ListQuizzes(ctx context.Context) ([]QuizInfo, error) {
	return s.quizInfos(), nil
}

func (s *quizService) ReloadQuizzes(ctx context.Context) ([]QuizInfo, error) {
	s.repo.Reload()
	return s.quizInfos(), nil
}

func (s *quizService) quizInfos() []QuizInfo {
	names := s.repo.Names()
	infos := make([]QuizInfo, 0, len(names))
	for _, name := range names {
		count, err := s.repo.QuestionCount(name)
		if err != nil {
			continue
		}
		infos = append(infos, QuizInfo{Name: name, Questions: count})
	}
	return infos
}

func (s *quizService) ListSessions(ctx context.Context) ([]session.Snapshot, error) {
	return s.controller.Sessions(), nil
}

func (s *quizService) GetSettings(ctx context.Context) (*SettingsView, error) {
	settings := s.store.Snapshot()
	return &SettingsView{Settings: settings, Summary: settings.Summary()}, nil
}

func (s *quizService) UpdateSettings(ctx context.Context, update SettingsUpdate) (*SettingsView, error) {
	if update.AllQuestions != nil && *update.AllQuestions {
		s.store.ClearQuestionCount()
	}
	if update.QuestionCount != nil {
		if err := s.store.SetQuestionCount(*update.QuestionCount); err != nil {
			return nil, err
		}
	}
	if update.TimerDuration != nil {
		if err := s.store.SetTimerDuration(*update.TimerDuration); err != nil {
			return nil, err
		}
	}
	if update.RandomOrder != nil {
		s.store.SetRandomOrder(*update.RandomOrder)
	}

	settings := s.store.Snapshot()
	s.logger.Info("settings updated", "summary", settings.Summary())
	return &SettingsView{Settings: settings, Summary: settings.Summary()}, nil
}

func (s *quizService) Transcript(ctx context.Context, channelKey string) ([]presenter.Message, error) {
	return s.transcript.Transcript(channelKey), nil
}
