package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonjanego/spotify-library-curation/internal/curation"
	"github.com/jonjanego/spotify-library-curation/internal/library"
)

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession rejects unauthenticated API requests with 401.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := h.sessions.GetFromRequest(r)
		if session == nil {
			apiError(w, http.StatusUnauthorized, "not logged in, visit /auth/login to connect your Spotify account")
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session stored by RequireSession.
func sessionFrom(r *http.Request) *Session {
	session, _ := r.Context().Value(sessionContextKey).(*Session)
	return session
}

// recordAnalysis stamps the analysis time when the session backend
// tracks it.
func (h *Handlers) recordAnalysis(r *http.Request, session *Session) {
	if rec, ok := h.sessions.(interface {
		RecordAnalysis(ctx context.Context, userID string)
	}); ok {
		rec.RecordAnalysis(r.Context(), session.UserID)
	}
}

// APIDuplicates handles GET /api/duplicates?mode=strict|loose.
func (h *Handlers) APIDuplicates(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "strict"
	}
	if mode != "strict" && mode != "loose" {
		apiError(w, http.StatusBadRequest, "mode must be strict or loose")
		return
	}

	session := sessionFrom(r)
	svc := h.service(r, session)
	report, err := svc.Duplicates(r.Context(), mode == "strict")
	if err != nil {
		h.apiServiceError(w, err)
		return
	}
	h.recordAnalysis(r, session)
	writeJSON(w, http.StatusOK, report)
}

// APIAlbums handles GET /api/albums.
func (h *Handlers) APIAlbums(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	svc := h.service(r, session)
	report, err := svc.Albums(r.Context())
	if err != nil {
		h.apiServiceError(w, err)
		return
	}
	h.recordAnalysis(r, session)
	writeJSON(w, http.StatusOK, report)
}

// APIYears handles GET /api/years.
func (h *Handlers) APIYears(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	svc := h.service(r, session)
	report, err := svc.Years(r.Context())
	if err != nil {
		h.apiServiceError(w, err)
		return
	}
	h.recordAnalysis(r, session)
	writeJSON(w, http.StatusOK, report)
}

// APIRefresh handles POST /api/refresh.
func (h *Handlers) APIRefresh(w http.ResponseWriter, r *http.Request) {
	svc := h.service(r, sessionFrom(r))
	result, err := svc.Refresh(r.Context())
	if err != nil {
		h.apiServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// APIRemoveDuplicates handles POST /api/duplicates/remove.
func (h *Handlers) APIRemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	svc := h.service(r, sessionFrom(r))
	result, err := svc.RemoveDuplicates(r.Context())
	if err != nil {
		h.apiServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type removeAlbumsRequest struct {
	AlbumIDs     []string `json:"album_ids"`
	RemoveAll    bool     `json:"remove_all"`
	AddToLibrary bool     `json:"add_to_library"`
}

// APIRemoveAlbums handles POST /api/albums/remove.
func (h *Handlers) APIRemoveAlbums(w http.ResponseWriter, r *http.Request) {
	var req removeAlbumsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc := h.service(r, sessionFrom(r))
	result, err := svc.RemoveAlbums(r.Context(), req.AlbumIDs, req.RemoveAll, req.AddToLibrary)
	if err != nil {
		h.apiServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type yearPlaylistsRequest struct {
	Years []int `json:"years"`
}

// APICreateYearPlaylists handles POST /api/playlists/years.
func (h *Handlers) APICreateYearPlaylists(w http.ResponseWriter, r *http.Request) {
	var req yearPlaylistsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc := h.service(r, sessionFrom(r))
	result, err := svc.CreateYearPlaylists(r.Context(), req.Years)
	if err != nil {
		h.apiServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// apiServiceError maps service errors to API status codes. Expired
// authorization becomes 401 so the client can prompt a fresh login.
func (h *Handlers) apiServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrReauthRequired):
		apiError(w, http.StatusUnauthorized, "Spotify authorization expired, please log in again")
	case errors.Is(err, curation.ErrNoAlbumsSelected), errors.Is(err, curation.ErrNoYearsSelected):
		apiError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("api request failed", "err", err)
		apiError(w, http.StatusBadGateway, "Spotify request failed: "+err.Error())
	}
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
