package http

import (
	"encoding/json"
	"net/http"

	"github.com/tabvault/tabvault/internal/logger"
	"github.com/tabvault/tabvault/internal/utils"
	"github.com/tabvault/tabvault/models"
)

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		http.Error(w, "no user in context", http.StatusUnauthorized)
		return
	}
	deviceID, _ := utils.GetDeviceIDFromContext(r.Context())

	var req models.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("invalid upload body")
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	resp, err := h.services.Groups.Upload(r.Context(), userID, deviceID, req)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("upload failed")
		http.Error(w, "upload failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		http.Error(w, "no user in context", http.StatusUnauthorized)
		return
	}

	var req models.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("invalid download body")
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	resp, err := h.services.Groups.Download(r.Context(), userID, req)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("download failed")
		http.Error(w, "download failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, resp, http.StatusOK)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		http.Error(w, "no user in context", http.StatusUnauthorized)
		return
	}

	settings, err := h.services.Groups.GetSettings(r.Context(), userID)
	if err != nil {
		logger.FromRequest(r).Err(err).Int64("user_id", userID).Msg("get settings failed")
		http.Error(w, "get settings failed", statusFromError(err))
		return
	}

	utils.WriteJSON(w, settings, http.StatusOK)
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	userID, found := utils.GetUserIDFromContext(r.Context())
	if !found {
		http.Error(w, "no user in context", http.StatusUnauthorized)
		return
	}
	deviceID, _ := utils.GetDeviceIDFromContext(r.Context())

	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.services.Groups.PutSettings(r.Context(), userID, deviceID, settings); err != nil {
		logger.FromRequest(r).Err(err).Int64("user_id", userID).Msg("put settings failed")
		http.Error(w, "put settings failed", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}
