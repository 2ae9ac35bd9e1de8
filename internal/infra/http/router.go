package http

import (
	"encoding/json"
	"net/http"

	"github.com/mamacare/triagedesk/internal/port/handler"
	"github.com/mamacare/triagedesk/internal/port/middleware"
	"github.com/mamacare/triagedesk/pkg/logger"
	"github.com/mamacare/triagedesk/pkg/metrics"
)

// Router wires every HTTP route the service exposes: PHW-authenticated
// intake and escalation endpoints, escalation-token-authenticated
// specialist portal endpoints, and the live case event stream.
type Router struct {
	analyze        *handler.AnalyzeHandler
	escalate       *handler.EscalateHandler
	specialist     *handler.SpecialistHandler
	cases          *handler.CaseHandler
	ws             *handler.WSHandler
	phwAuth        *middleware.AuthMiddleware
	specialistAuth *middleware.SpecialistAuthMiddleware
	errorHandler   *middleware.ErrorHandlerMiddleware
	log            logger.Logger
	metricsClient  metrics.Client
}

// NewRouter constructs a Router.
func NewRouter(
	analyze *handler.AnalyzeHandler,
	escalate *handler.EscalateHandler,
	specialist *handler.SpecialistHandler,
	cases *handler.CaseHandler,
	ws *handler.WSHandler,
	phwAuth *middleware.AuthMiddleware,
	specialistAuth *middleware.SpecialistAuthMiddleware,
	log logger.Logger,
	metricsClient metrics.Client,
) *Router {
	return &Router{
		analyze:        analyze,
		escalate:       escalate,
		specialist:     specialist,
		cases:          cases,
		ws:             ws,
		phwAuth:        phwAuth,
		specialistAuth: specialistAuth,
		errorHandler:   middleware.NewErrorHandlerMiddleware(log),
		log:            log,
		metricsClient:  metricsClient,
	}
}

// Setup builds the final http.Handler, with every /api/v1 and /ws route
// carrying the common chain (request ID, logging, recovery, CORS,
// metrics) plus whichever auth the route requires. /health is served
// without any middleware.
func (rt *Router) Setup() http.Handler {
	mux := http.NewServeMux()

	common := middleware.CommonMiddleware(rt.log).Append(middleware.Metrics(rt.metricsClient, rt.log))
	phw := common.Append(rt.phwAuth.Authenticate)
	specialist := common.Append(rt.specialistAuth.Authenticate)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.Handle("/api/v1/analyze/risk", phw.Then(rt.errorHandler.Handler(rt.analyze.Analyze)))
	mux.Handle("/api/v1/escalate", phw.Then(rt.errorHandler.Handler(rt.escalate.Escalate)))
	mux.Handle("/api/v1/cases", phw.Then(rt.errorHandler.Handler(rt.cases.List)))
	mux.Handle("/api/v1/cases/", phw.Then(rt.errorHandler.Handler(rt.cases.Get)))

	mux.Handle("/api/v1/specialist/portal/", specialist.Then(rt.errorHandler.Handler(rt.specialist.Portal)))
	mux.Handle("/api/v1/specialist/advice", specialist.Then(rt.errorHandler.Handler(rt.specialist.SubmitAdvice)))

	mux.Handle("/ws/case/", common.Then(rt.errorHandler.Handler(rt.ws.HandleCaseEvents)))

	rt.log.Info("router setup complete")

	return mux
}
