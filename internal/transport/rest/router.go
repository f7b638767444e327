package rest

import (
	"net/http"
	"selfeval/internal/metrics"
	"selfeval/internal/service"
	"selfeval/internal/transport/rest/handler"
	"selfeval/internal/transport/rest/middleware"
	"selfeval/internal/transport/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	CourseService   *service.CourseService
	QuestionService *service.QuestionService
	QCAService      *service.QCAService
	SurveyService   *service.SurveyService
	AttemptService  *service.AttemptService
	WSHub           *ws.Hub
	Metrics         *metrics.Metrics
	RateLimiter     *middleware.RateLimiter
	AllowedOrigins  []string
	Log             *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	userHandler := handler.NewUserHandler(c.AuthService, c.Log)
	courseHandler := handler.NewCourseHandler(c.CourseService, c.Log)
	questionHandler := handler.NewQuestionHandler(c.QuestionService, c.Log)
	qcaHandler := handler.NewQCAHandler(c.QCAService, c.Log)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService, c.Log)
	attemptHandler := handler.NewAttemptHandler(c.AttemptService, c.Log)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SurveyService, c.AllowedOrigins, c.Log)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(c.Metrics.Middleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	if c.Metrics != nil {
		r.Handle("/metrics", c.Metrics.Handler()).Methods("GET")
	}

	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Public routes, rate limited per client
	public := v1.NewRoute().Subrouter()
	if c.RateLimiter != nil {
		public.Use(c.RateLimiter.Middleware)
	}
	public.HandleFunc("/users/signup", userHandler.Signup).Methods("POST")
	public.HandleFunc("/users/login", userHandler.Login).Methods("POST")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/surveys/{surveyId}", wsHandler.SurveyFeed).Methods("GET")

	// Any signed-in user
	users := v1.NewRoute().Subrouter()
	users.Use(authMW.RequireUser)

	users.HandleFunc("/users/me", userHandler.Me).Methods("GET")
	users.HandleFunc("/courses", courseHandler.List).Methods("GET")
	users.HandleFunc("/courses/{courseId}", courseHandler.Get).Methods("GET")
	users.HandleFunc("/surveys", surveyHandler.List).Methods("GET")
	users.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET")
	users.HandleFunc("/survey-attempts/start", attemptHandler.Start).Methods("POST")
	users.HandleFunc("/survey-attempts/my", attemptHandler.Mine).Methods("GET")
	users.HandleFunc("/survey-attempts/{attemptId}/answers", attemptHandler.SaveAnswers).Methods("POST")
	users.HandleFunc("/survey-attempts/{attemptId}/submit", attemptHandler.Submit).Methods("POST")
	users.HandleFunc("/survey-attempts/{attemptId}/results", attemptHandler.Results).Methods("GET")

	// Teacher routes
	teachers := v1.NewRoute().Subrouter()
	teachers.Use(authMW.RequireTeacher)

	teachers.HandleFunc("/courses", courseHandler.Create).Methods("POST")
	teachers.HandleFunc("/courses/{courseId}", courseHandler.Update).Methods("PUT")
	teachers.HandleFunc("/courses/{courseId}", courseHandler.Delete).Methods("DELETE")

	teachers.HandleFunc("/questions", questionHandler.Create).Methods("POST")
	teachers.HandleFunc("/questions", questionHandler.List).Methods("GET")
	teachers.HandleFunc("/questions/{questionId}", questionHandler.Get).Methods("GET")
	teachers.HandleFunc("/questions/{questionId}", questionHandler.Update).Methods("PUT")
	teachers.HandleFunc("/questions/{questionId}", questionHandler.Delete).Methods("DELETE")

	teachers.HandleFunc("/question-course-associations", qcaHandler.Create).Methods("POST")
	teachers.HandleFunc("/question-course-associations", qcaHandler.List).Methods("GET")
	teachers.HandleFunc("/question-course-associations/{qcaId}", qcaHandler.Get).Methods("GET")
	teachers.HandleFunc("/question-course-associations/{qcaId}", qcaHandler.Update).Methods("PUT")
	teachers.HandleFunc("/question-course-associations/{qcaId}", qcaHandler.Delete).Methods("DELETE")

	teachers.HandleFunc("/surveys", surveyHandler.Create).Methods("POST")
	teachers.HandleFunc("/surveys/{surveyId}", surveyHandler.Update).Methods("PUT")
	teachers.HandleFunc("/surveys/{surveyId}", surveyHandler.Delete).Methods("DELETE")
	teachers.HandleFunc("/surveys/{surveyId}/scoreboard", surveyHandler.Scoreboard).Methods("GET")
	teachers.HandleFunc("/survey-attempts/by-survey/{surveyId}", attemptHandler.BySurvey).Methods("GET")

	// CORS wraps the router so preflight requests never reach route matching
	var h http.Handler = r
	h = middleware.CORS(c.AllowedOrigins)(h)
	h = middleware.Recovery(c.Log)(h)
	h = middleware.Logging(c.Log)(h)
	h = middleware.RequestID(h)
	return h
}
