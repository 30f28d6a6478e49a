package http

import (
	"encoding/json"
	"net/http"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/utils"
	"github.com/tabvault/tabvault/models"
)

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Debug().Err(err).Msg("invalid register body")
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	token, err := h.services.Auth.Register(r.Context(), user)
	if err != nil {
		log.Info().Err(err).Str("login", user.Login).Msg("registration rejected")
		http.Error(w, "registration failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, token, http.StatusOK)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	var user models.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		log.Debug().Err(err).Msg("invalid login body")
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	token, err := h.services.Auth.Login(r.Context(), user)
	if err != nil {
		log.Info().Err(err).Str("login", user.Login).Msg("login rejected")
		http.Error(w, "login failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, token, http.StatusOK)
}
