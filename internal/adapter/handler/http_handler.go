package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rl1809/livemart/internal/core/domain"
	"github.com/rl1809/livemart/internal/core/service"
)

const idempotencyHeader = "Idempotency-Key"

type Services struct {
	Auth      *service.AuthService
	Products  *service.ProductService
	Inventory *service.InventoryService
	Orders    *service.OrderService
	Wholesale *service.WholesaleService
	Feedback  *service.FeedbackService
}

type HTTPHandler struct {
	svc Services
	log zerolog.Logger
}

func NewHTTPHandler(svc Services, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, log: log.With().Str("component", "http").Logger()}
}

// Routes builds the router. A nil limiter disables rate limiting.
func (h *HTTPHandler) Routes(limiter *rate.Limiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	r.Use(tracing)

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(rateLimit(limiter))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.signup)
			r.Post("/login", h.login)
			r.Post("/send-otp", h.sendOTP)
			r.Post("/verify-otp", h.verifyOTP)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/{id}", h.getProduct)
			r.Post("/add", h.addProduct)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/retailer/{id}", h.listInventory)
			r.Post("/add", h.addInventory)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/create", h.createOrder)
			r.Get("/customer/{id}", h.ordersByCustomer)
			r.Get("/retailer/{id}", h.ordersByRetailer)
			r.Put("/update-status/{id}", h.updateOrderStatus)
		})

		r.Route("/wholesale", func(r chi.Router) {
			r.Post("/request", h.requestStock)
			r.Put("/approve/{id}", h.approveRequest)
			r.Get("/pending", h.pendingRequests)
			r.Get("/retailer/{id}", h.retailerRequests)
		})

		r.Route("/feedback", func(r chi.Router) {
			r.Post("/add", h.addFeedback)
			r.Get("/product/{id}", h.feedbackByProduct)
			r.Get("/retailer/{id}", h.feedbackByRetailer)
		})
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, message string, id int64) {
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: message, ID: id})
}

// httpStatus maps an error category to a status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		message = "internal error"
	}
	writeJSON(w, status, MessageResponse{Success: false, Message: message})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, MessageResponse{Success: false, Message: message})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "invalid request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
