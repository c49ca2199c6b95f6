package app

import (
	"context"
	"sort"

	"knotquiz/internal/domain"

	"go.uber.org/zap"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
}

// ImageResolver turns a stored image reference into a URL a client can load.
type ImageResolver interface {
	ResolveImage(ctx context.Context, ref string) (string, error)
}

// QuizService serves the quiz catalog.
type QuizService struct {
	quizzes            QuizRepository
	shuffler           *Shuffler
	images             ImageResolver
	optionsPerQuestion int
	logger             *zap.Logger
}

func NewQuizService(quizzes QuizRepository, shuffler *Shuffler, optionsPerQuestion int, logger *zap.Logger) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{
		quizzes:            quizzes,
		shuffler:           shuffler,
		optionsPerQuestion: optionsPerQuestion,
		logger:             logger,
	}
}

// WithImages attaches an image resolver.
func (s *QuizService) WithImages(images ImageResolver) *QuizService {
	s.images = images
	return s
}

// List returns the catalog sorted by quiz id.
func (s *QuizService) List(ctx context.Context) ([]domain.QuizSummary, error) {
	summaries, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].QuizID < summaries[j].QuizID })
	return summaries, nil
}

// PlayableQuiz is a quiz prepared for one client-side attempt.
type PlayableQuiz struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Questions []PlayableQuestion `json:"questions"`
}

// PlayableQuestion carries the generated options and the correct values so
// a client can score locally.
type PlayableQuestion struct {
	QuestionView
	Answer []string `json:"answer"`
}

// Get returns quizID with shuffled questions and generated options.
func (s *QuizService) Get(ctx context.Context, quizID string) (PlayableQuiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return PlayableQuiz{}, err
	}

	pool := AnswerPool(quiz)
	questions := Shuffle(s.shuffler, quiz.Questions)
	out := PlayableQuiz{ID: quiz.ID, Name: quiz.Name, Questions: make([]PlayableQuestion, 0, len(questions))}
	for _, q := range questions {
		pq := PlayableQuestion{
			QuestionView: QuestionView{
				ID:      q.ID,
				Prompt:  q.Prompt,
				Image:   s.resolveImage(ctx, q.Image),
				Kind:    q.Kind,
				Options: OptionsFor(s.shuffler, q, pool, s.optionsPerQuestion),
			},
			Answer: q.CorrectValues(),
		}
		for _, p := range q.Pairs {
			pq.Lefts = append(pq.Lefts, p.Left)
		}
		out.Questions = append(out.Questions, pq)
	}
	return out, nil
}

// Load returns the stored quiz unchanged.
func (s *QuizService) Load(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	// cached quizzes share their question slice
	questions := append([]domain.Question(nil), quiz.Questions...)
	for i := range questions {
		questions[i].Image = s.resolveImage(ctx, questions[i].Image)
	}
	quiz.Questions = questions
	return quiz, nil
}

func (s *QuizService) resolveImage(ctx context.Context, ref string) string {
	if ref == "" || s.images == nil {
		return ref
	}
	url, err := s.images.ResolveImage(ctx, ref)
	if err != nil {
		s.logger.Warn("image reference not resolved", zap.String("ref", ref), zap.Error(err))
		return ref
	}
	return url
}
