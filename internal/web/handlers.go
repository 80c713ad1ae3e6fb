package web

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/jonjanego/spotify-library-curation/internal/cache"
	"github.com/jonjanego/spotify-library-curation/internal/config"
	"github.com/jonjanego/spotify-library-curation/internal/curation"
	"github.com/jonjanego/spotify-library-curation/internal/library"
)

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	auth      *spotifyauth.Authenticator
	sessions  SessionManager
	templates *Templates
	snapshots *cache.SnapshotCache
	app       *config.Config
	logger    *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(auth *spotifyauth.Authenticator, sessions SessionManager, templates *Templates,
	snapshots *cache.SnapshotCache, app *config.Config, logger *log.Logger) *Handlers {
	return &Handlers{
		auth:      auth,
		sessions:  sessions,
		templates: templates,
		snapshots: snapshots,
		app:       app,
		logger:    logger,
	}
}

// service builds a curation service bound to the session's token. The
// snapshot cache is shared across requests; the API client is not.
func (h *Handlers) service(r *http.Request, session *Session) *curation.Service {
	httpClient := h.auth.Client(r.Context(), session.Token)
	api := spotify.New(httpClient, spotify.WithRetry(true))

	client := library.New(api, httpClient,
		library.WithLogger(h.logger),
		library.WithRateLimit(h.app.Curation.RequestsPerSecond),
		library.WithFetchRetry(h.app.Curation.FetchRetryAttempts, 0, 0),
	)

	source := library.NewSource(client, h.snapshots, h.logger)

	return curation.NewService(source,
		curation.WithLogger(h.logger),
		curation.WithAlbumConfig(h.app.AlbumConfig()),
		curation.WithBatchSizes(h.app.Curation.RemoveBatchSize, h.app.Curation.PlaylistBatchSize),
		curation.WithAppendRetry(h.app.Curation.AppendAttempts, h.app.BackoffUnit()),
	)
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)

	data := HomePageData{
		PageData: PageData{
			Title:       "Library Curation",
			CurrentPath: r.URL.Path,
		},
		Authenticated: session != nil,
	}

	if session != nil {
		data.User = &UserData{
			ID:   session.UserID,
			Name: session.UserName,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}
}

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	// Generate state for CSRF protection
	state, err := generateOAuthState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	url := h.auth.AuthURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	// Verify state
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Spotify auth error: %s", errMsg), http.StatusBadRequest)
		return
	}

	// Exchange code for token
	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		return
	}

	// Get user info from Spotify
	client := spotify.New(h.auth.Client(r.Context(), token))
	user, err := client.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	session, err := h.sessions.Create(r.Context(), token, string(user.ID), user.DisplayName)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.sessions.SetCookie(w, session)
	h.logger.Info("user logged in", "user", user.ID)

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
