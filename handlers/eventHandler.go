package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"calassist/models"
	"calassist/services/store"

	"github.com/gorilla/mux"
)

type EventHandler struct {
	store store.Store
}

func NewEventHandler(store store.Store) *EventHandler {
	return &EventHandler{store: store}
}

func (h *EventHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/events", h.ListEvents).Methods("GET")
	router.HandleFunc("/events", h.CreateEvent).Methods("POST")
	router.HandleFunc("/events/{id}", h.UpdateEvent).Methods("PATCH")
	router.HandleFunc("/events/{id}", h.DeleteEvent).Methods("DELETE")

	router.HandleFunc("/auth/signin", h.SignIn).Methods("POST")
	router.HandleFunc("/auth/callback", h.AuthCallback).Methods("POST")
	router.HandleFunc("/auth/signout", h.SignOut).Methods("POST")
	router.HandleFunc("/auth/status", h.AuthStatus).Methods("GET")

	router.HandleFunc("/timezone", h.SetTimezone).Methods("PUT")
	router.HandleFunc("/timezone", h.GetTimezone).Methods("GET")
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.Context())
	if err != nil {
		h.writeStoreError(w, err, "Failed to list events")
		return
	}

	if events == nil {
		events = []models.Event{}
	}
	h.writeJSONResponse(w, http.StatusOK, events)
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input models.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if input.Title == "" || input.Start == "" || input.End == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Title, start and end are required")
		return
	}

	event, err := h.store.CreateEvent(r.Context(), input)
	if err != nil {
		h.writeStoreError(w, err, "Failed to create event")
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, event)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var patch models.EventPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	event, err := h.store.UpdateEvent(r.Context(), vars["id"], patch)
	if err != nil {
		h.writeStoreError(w, err, "Failed to update event")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.store.DeleteEvent(r.Context(), vars["id"]); err != nil {
		h.writeStoreError(w, err, "Failed to delete event")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	err := h.store.SignIn(r.Context())
	if err != nil {
		var authURL *store.AuthURLError
		if errors.As(err, &authURL) {
			h.writeJSONResponse(w, http.StatusAccepted, map[string]string{"auth_url": authURL.URL})
			return
		}
		log.Printf("[ERROR] Sign-in failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Sign-in failed")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"authenticated": h.store.IsAuthenticated()})
}

func (h *EventHandler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	googleStore, ok := h.store.(*store.GoogleStore)
	if !ok {
		h.writeErrorResponse(w, http.StatusBadRequest, "The configured calendar store has no authorization flow")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "An authorization code is required")
		return
	}

	if err := googleStore.CompleteSignIn(r.Context(), req.Code); err != nil {
		log.Printf("[ERROR] Authorization code exchange failed: %v", err)
		h.writeErrorResponse(w, http.StatusBadGateway, "Authorization failed")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (h *EventHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.store.SignOut()
	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"authenticated": h.store.IsAuthenticated()})
}

func (h *EventHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]bool{"authenticated": h.store.IsAuthenticated()})
}

func (h *EventHandler) SetTimezone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timezone string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	zone, err := store.NormalizeTimezone(req.Timezone, false)
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SetTimezone(zone); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]string{"timezone": zone})
}

func (h *EventHandler) GetTimezone(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, map[string]string{"timezone": h.store.Timezone()})
}

func (h *EventHandler) writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotAuthenticated) {
		h.writeErrorResponse(w, http.StatusUnauthorized, "Not signed in with the calendar provider")
		return
	}
	log.Printf("[ERROR] %s: %v", message, err)
	h.writeErrorResponse(w, http.StatusInternalServerError, message)
}

func (h *EventHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *EventHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
