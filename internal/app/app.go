package app

import (
	"context"
	"fmt"
	"selfeval/internal/cache"
	"selfeval/internal/config"
	"selfeval/internal/metrics"
	"selfeval/internal/repository"
	"selfeval/internal/service"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// App holds the process's connections and repositories
type App struct {
	Mongo *mongo.Client
	DB    *mongo.Database
	Redis *redis.Client

	Users     repository.UserRepo
	Courses   repository.CourseRepo
	Questions repository.QuestionRepo
	QCAs      repository.QCARepo
	Surveys   repository.SurveyRepo
	Attempts  repository.AttemptRepo
	Answers   repository.AnswerRepo

	log *zap.Logger
}

// Services are the application services built over an App
type Services struct {
	Auth      *service.AuthService
	Courses   *service.CourseService
	Questions *service.QuestionService
	QCAs      *service.QCAService
	Surveys   *service.SurveyService
	Attempts  *service.AttemptService
}

// Connect dials MongoDB and Redis, pings both and ensures indexes
func Connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		mongoClient.Disconnect(ctx)
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	db := mongoClient.Database(cfg.Mongo.Database)
	repository.EnsureIndexes(ctx, db, log)

	return &App{
		Mongo:     mongoClient,
		DB:        db,
		Redis:     rdb,
		Users:     repository.NewUserRepo(db),
		Courses:   repository.NewCourseRepo(db),
		Questions: repository.NewQuestionRepo(db),
		QCAs:      repository.NewQCARepo(db),
		Surveys:   repository.NewSurveyRepo(db),
		Attempts:  repository.NewAttemptRepo(db),
		Answers:   repository.NewAnswerRepo(db),
		log:       log,
	}, nil
}

// NewServices wires the application services. The attempt service has no
// broadcaster until SetBroadcaster is called.
func (a *App) NewServices(cfg *config.Config, m *metrics.Metrics) *Services {
	surveyCache := cache.NewSurveyCache(a.Redis, cfg.Cache.SurveyTTL)
	scoreboard := cache.NewScoreboardCache(a.Redis)
	refresher := service.NewSurveyRefresher(a.Surveys, a.QCAs, surveyCache, a.log)

	surveySvc := service.NewSurveyService(service.SurveyDeps{
		Surveys:    a.Surveys,
		Courses:    a.Courses,
		QCAs:       a.QCAs,
		Questions:  a.Questions,
		Attempts:   a.Attempts,
		Answers:    a.Answers,
		Cache:      surveyCache,
		Scoreboard: scoreboard,
		Refresher:  refresher,
		Log:        a.log,
	})

	return &Services{
		Auth:      service.NewAuthService(a.Users, cfg.JWT.Secret, cfg.JWT.ExpireTime),
		Courses:   service.NewCourseService(a.Courses),
		Questions: service.NewQuestionService(a.Questions, a.QCAs, refresher),
		QCAs:      service.NewQCAService(a.QCAs, a.Questions, a.Courses, refresher),
		Surveys:   surveySvc,
		Attempts: service.NewAttemptService(service.AttemptDeps{
			Attempts:   a.Attempts,
			Answers:    a.Answers,
			Surveys:    a.Surveys,
			QCAs:       a.QCAs,
			Questions:  a.Questions,
			Users:      a.Users,
			SurveySvc:  surveySvc,
			Lock:       cache.NewSubmitLock(a.Redis, cfg.Cache.LockTTL),
			Scoreboard: scoreboard,
			Metrics:    m,
			Log:        a.log,
		}),
	}
}

// Close releases both connections
func (a *App) Close(ctx context.Context) {
	if err := a.Redis.Close(); err != nil {
		a.log.Warn("failed to close redis", zap.Error(err))
	}
	if err := a.Mongo.Disconnect(ctx); err != nil {
		a.log.Warn("failed to disconnect mongo", zap.Error(err))
	}
}
