package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"triage-assistant/internal/db"
	"triage-assistant/pkg"
)

// TriageService is the conversation orchestrator the handlers dispatch to.
type TriageService interface {
	Chat(ctx context.Context, history []pkg.Turn, message string) (*pkg.ChatResult, error)
	Classify(ctx context.Context, symptoms, ageGroup, urgency string) (*pkg.Classification, error)
}

// RequestStore persists and retrieves finalized submissions.
type RequestStore interface {
	Create(ctx context.Context, req *pkg.Request) error
	Get(ctx context.Context, id string) (*pkg.Request, error)
	List(ctx context.Context, status, specialty string, limit int) ([]pkg.Request, error)
}

// Server bundles the dependencies required by the HTTP handlers. It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Triage  TriageService
	Store   RequestStore
	Origins []string // CORS allow-list; first entry is the fallback
}

// NewServer constructs a Server.
func NewServer(triage TriageService, store RequestStore, origins []string) *Server {
	return &Server{Triage: triage, Store: store, Origins: origins}
}

// envelope is the request body shape for every action.
type envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ServeHTTP dispatches {action, data} request bodies to the matching
// handler. Every response, including errors and preflights, carries the
// negotiated CORS headers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Message: err.Error()})
		return
	}

	reqID := uuid.New().String()[:8]
	status, body := s.dispatch(r.Context(), env)
	log.Printf("http request id=%s action=%s status=%d", reqID, env.Action, status)
	writeJSON(w, status, body)
}

func (s *Server) dispatch(ctx context.Context, env envelope) (int, any) {
	switch env.Action {
	case "chat":
		return s.handleChat(ctx, env.Data)
	case "classify":
		return s.handleClassify(ctx, env.Data)
	case "submit":
		return s.handleSubmit(ctx, env.Data)
	case "get":
		return s.handleGet(ctx, env.Data)
	case "list":
		return s.handleList(ctx, env.Data)
	default:
		return http.StatusBadRequest, errorBody{Error: "Invalid action"}
	}
}

func (s *Server) handleChat(ctx context.Context, data json.RawMessage) (int, any) {
	var in struct {
		Message             string     `json:"message"`
		ConversationHistory []pkg.Turn `json:"conversationHistory"`
	}
	if err := decodeData(data, &in); err != nil {
		return http.StatusBadRequest, errorBody{Error: "invalid chat data", Message: err.Error()}
	}
	if in.Message == "" {
		return http.StatusBadRequest, errorBody{Error: "message is required"}
	}
	result, err := s.Triage.Chat(ctx, in.ConversationHistory, in.Message)
	if err != nil {
		return http.StatusInternalServerError, errorBody{Error: "Chat processing failed", Message: err.Error()}
	}
	return http.StatusOK, result
}

func (s *Server) handleClassify(ctx context.Context, data json.RawMessage) (int, any) {
	var in struct {
		Symptoms string `json:"symptoms"`
		AgeGroup string `json:"ageGroup"`
		Urgency  string `json:"urgency"`
	}
	if err := decodeData(data, &in); err != nil {
		return http.StatusBadRequest, errorBody{Error: "invalid classify data", Message: err.Error()}
	}
	if in.Symptoms == "" {
		return http.StatusBadRequest, errorBody{Error: "symptoms is required"}
	}
	if in.Urgency == "" {
		in.Urgency = "medium"
	}
	classification, err := s.Triage.Classify(ctx, in.Symptoms, in.AgeGroup, in.Urgency)
	if err != nil {
		return http.StatusInternalServerError, errorBody{Error: "Classification failed", Message: err.Error()}
	}
	return http.StatusOK, classification
}

func (s *Server) handleSubmit(ctx context.Context, data json.RawMessage) (int, any) {
	var in struct {
		DoctorName     string `json:"doctorName"`
		Hospital       string `json:"hospital"`
		Location       string `json:"location"`
		Email          string `json:"email"`
		AgeGroup       string `json:"ageGroup"`
		Symptoms       string `json:"symptoms"`
		Urgency        string `json:"urgency"`
		AdditionalInfo string `json:"additionalInfo"`
		Specialty      string `json:"specialty"`
		Subspecialty   string `json:"subspecialty"`
		Reasoning      string `json:"reasoning"`
	}
	if err := decodeData(data, &in); err != nil {
		return http.StatusBadRequest, errorBody{Error: "invalid submit data", Message: err.Error()}
	}
	if in.Urgency == "" {
		in.Urgency = "medium"
	}
	req := &pkg.Request{
		DoctorName:     in.DoctorName,
		Hospital:       in.Hospital,
		Location:       in.Location,
		Email:          in.Email,
		AgeGroup:       in.AgeGroup,
		Symptoms:       in.Symptoms,
		Urgency:        in.Urgency,
		AdditionalInfo: in.AdditionalInfo,
		Specialty:      in.Specialty,
		Subspecialty:   in.Subspecialty,
		Reasoning:      in.Reasoning,
	}
	if err := s.Store.Create(ctx, req); err != nil {
		return http.StatusInternalServerError, errorBody{Error: "Submit failed", Message: err.Error()}
	}
	return http.StatusOK, map[string]any{
		"success":   true,
		"id":        req.ID,
		"message":   "Request submitted successfully",
		"timestamp": req.CreatedAt,
	}
}

func (s *Server) handleGet(ctx context.Context, data json.RawMessage) (int, any) {
	var in struct {
		ID string `json:"id"`
	}
	if err := decodeData(data, &in); err != nil {
		return http.StatusBadRequest, errorBody{Error: "invalid get data", Message: err.Error()}
	}
	if in.ID == "" {
		return http.StatusBadRequest, errorBody{Error: "Request ID is required"}
	}
	req, err := s.Store.Get(ctx, in.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return http.StatusNotFound, errorBody{Error: "Request not found"}
		}
		return http.StatusInternalServerError, errorBody{Error: "Get failed", Message: err.Error()}
	}
	return http.StatusOK, map[string]any{
		"success": true,
		"request": req,
	}
}

func (s *Server) handleList(ctx context.Context, data json.RawMessage) (int, any) {
	var in struct {
		Status    string `json:"status"`
		Specialty string `json:"specialty"`
		Limit     int    `json:"limit"`
	}
	if err := decodeData(data, &in); err != nil {
		return http.StatusBadRequest, errorBody{Error: "invalid list data", Message: err.Error()}
	}
	requests, err := s.Store.List(ctx, in.Status, in.Specialty, in.Limit)
	if err != nil {
		return http.StatusInternalServerError, errorBody{Error: "List failed", Message: err.Error()}
	}
	if requests == nil {
		requests = []pkg.Request{}
	}
	return http.StatusOK, map[string]any{
		"success":  true,
		"requests": requests,
		"count":    len(requests),
	}
}

// decodeData unmarshals an action's data object; a missing data field is
// treated as an empty object so actions with all-optional fields still work.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// setCORSHeaders negotiates the Allow-Origin header against the configured
// allow-list: a listed request origin is echoed back, anything else falls
// back to the first configured origin. Unlisted origins are never reflected.
// Vary: Origin accompanies every response for cache correctness.
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	allowed := s.Origins[0]
	origin := r.Header.Get("Origin")
	for _, o := range s.Origins {
		if o == origin {
			allowed = origin
			break
		}
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowed)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", "OPTIONS,POST,GET")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("http encode response: %v", err)
	}
}
