package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"knotquiz/internal/app"
	"knotquiz/internal/config"
	"knotquiz/internal/infra/memory"
	"knotquiz/internal/infra/objectstore"
	pgstore "knotquiz/internal/infra/postgres"
	"knotquiz/internal/infra/rabbitmq"
	redisstore "knotquiz/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// services is the wired application graph shared by start and play.
type services struct {
	quizzes    *app.QuizService
	highScores *app.HighScoreService
	sessions   *app.SessionService
	closers    []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildServices(ctx context.Context, cfg config.Config, logger *zap.Logger) (*services, error) {
	svc := &services{}
	fail := func(err error) (*services, error) {
		svc.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		svc.closers = append(svc.closers, pool.Close)
	}

	var loader memory.QuizLoader
	if pool != nil {
		loader = pgstore.NewQuizLoader(pool)
	} else {
		quizzes, err := loadCatalog(cfg.Quiz.SeedFile)
		if err != nil {
			return fail(fmt.Errorf("load catalog: %w", err))
		}
		loader = memory.NewStaticQuizLoader(quizzes)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	shuffler := app.NewShuffler(cfg.Quiz.Randomize, nil)
	k := cfg.Quiz.OptionsPerQuestion
	svc.quizzes = app.NewQuizService(quizRepo, shuffler, k, logger)
	if cfg.Images.Endpoint != "" {
		images, err := objectstore.NewImageStore(objectstore.Config{
			Endpoint:  cfg.Images.Endpoint,
			AccessKey: cfg.Images.AccessKey,
			SecretKey: cfg.Images.SecretKey,
			Bucket:    cfg.Images.Bucket,
			Region:    cfg.Images.Region,
			UseSSL:    cfg.Images.UseSSL,
			Expiry:    config.TTLDuration(cfg.Images.Expiry, 15*time.Minute),
		})
		if err != nil {
			return fail(err)
		}
		bucketCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := images.EnsureBucket(bucketCtx); err != nil {
			// presigning works without the bucket; uploads will fail until it exists
			logger.Warn("image bucket not ensured", zap.String("bucket", cfg.Images.Bucket), zap.Error(err))
		}
		cancel()
		svc.quizzes.WithImages(images)
	}

	store, err := highScoreStore(cfg, redisClient, svc)
	if err != nil {
		return fail(err)
	}
	svc.highScores = app.NewHighScoreService(store, cfg.Leaderboard.GlobalCapacity, logger)
	if cfg.RabbitMQ.URL != "" {
		publisher, err := rabbitmq.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			// events are best effort; run without them
			logger.Warn("high score events disabled", zap.Error(err))
		} else {
			svc.highScores.WithPublisher(publisher)
			svc.closers = append(svc.closers, func() { _ = publisher.Close() })
		}
	}

	var sessions app.SessionRepository = memory.NewSessionStore()
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Session.TTL, 30*time.Minute))
	}
	svc.sessions = app.NewSessionService(sessions, svc.quizzes, svc.highScores, app.NewNotifier(), shuffler, k, logger)
	return svc, nil
}

func highScoreStore(cfg config.Config, redisClient *redis.Client, svc *services) (app.HighScoreStore, error) {
	switch cfg.HighScores.Backend {
	case "", "memory":
		return memory.NewHighScoreStore(), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("highscores backend redis needs redis.addr")
		}
		return redisstore.NewHighScoreStore(redisClient), nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, fmt.Errorf("highscores backend postgres needs postgres.url")
		}
		db := openBun(cfg.Postgres.URL)
		svc.closers = append(svc.closers, func() { _ = db.Close() })
		return pgstore.NewHighScoreStore(db), nil
	default:
		return nil, fmt.Errorf("unknown highscores backend %q", cfg.HighScores.Backend)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}
