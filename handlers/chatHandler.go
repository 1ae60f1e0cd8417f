package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"calassist/models"
	"calassist/services/assistant"

	"github.com/gorilla/mux"
)

type ChatHandler struct {
	session *assistant.Session
}

func NewChatHandler(session *assistant.Session) *ChatHandler {
	return &ChatHandler{session: session}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/assistant/chat", h.Chat).Methods("POST")
	router.HandleFunc("/assistant/history", h.History).Methods("GET")
	router.HandleFunc("/assistant/status", h.Status).Methods("GET")
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received assistant chat request")

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode chat request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Message == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "A message is required")
		return
	}

	messages, err := h.session.Submit(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, assistant.ErrBusy) {
			h.writeErrorResponse(w, http.StatusConflict, "The assistant is still working on a previous message")
			return
		}
		log.Printf("[ERROR] Chat exchange failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.ChatResponse{Messages: messages, Busy: h.session.IsBusy()})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, models.ChatResponse{
		Messages: h.session.History(),
		Busy:     h.session.IsBusy(),
	})
}

func (h *ChatHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"busy": h.session.IsBusy()})
}

func (h *ChatHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ChatHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
