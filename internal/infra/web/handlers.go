package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"telegram-chat-bridge/internal/domain"
	"telegram-chat-bridge/internal/infra/redis"
)

// apiResponse is the envelope every endpoint answers with. The bind endpoint
// in particular is consumed by the chat listener, which relays `data`
// verbatim to the end user, so `data` always carries human-readable text
// (or a typed payload on success paths that return structured data).
type apiResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, code int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeSuccess(w http.ResponseWriter, code int, data interface{}) {
	writeJSON(w, code, apiResponse{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, apiResponse{Status: "error", Data: message})
}

// ===== Typed request/response bodies =====

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
}

type registerResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	Token     string `json:"token"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type bindRequest struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type historyEntry struct {
	Text      string    `json:"text"`
	Date      time.Time `json:"date"`
	Direction string    `json:"direction"`
	Status    string    `json:"status"`
}

type meResponse struct {
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	RegisteredAt time.Time `json:"registered_at"`
}

type healthResponse struct {
	Users int `json:"users"`
}

// ===== Handlers =====

// registerHandler creates an account plus its pairing token and signs the new
// user in. Only anonymous callers may register.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.auth.ParseFromRequest(r); err == nil {
		writeError(w, http.StatusForbidden, s.tr.T("already_authenticated"))
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("validation_error"))
		return
	}

	user, token, err := s.accounts.Register(r.Context(), req.Username, req.Password, req.FirstName)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, s.tr.T("validation_error"))
		case errors.Is(err, domain.ErrAlreadyExists):
			writeError(w, http.StatusBadRequest, s.tr.T("username_taken"))
		default:
			s.log.Error().Err(err).Msg("register failed")
			writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
		}
		return
	}

	if _, err := s.auth.Mint(w, user.ID); err != nil {
		s.log.Error().Err(err).Msg("failed to mint session")
		writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
		return
	}
	writeSuccess(w, http.StatusCreated, registerResponse{
		Username:  user.Username,
		FirstName: user.FirstName,
		Token:     token.Token,
	})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("validation_error"))
		return
	}

	if ok, err := s.limiter.Allow(r.Context(), redis.LoginAttemptKey(req.Username), s.loginLimit, time.Minute); err != nil {
		s.log.Warn().Err(err).Msg("login rate limiter unavailable")
	} else if !ok {
		writeError(w, http.StatusTooManyRequests, s.tr.T("login_rate_limited"))
		return
	}

	user, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, s.tr.T("invalid_credentials"))
			return
		}
		s.log.Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
		return
	}

	if _, err := s.auth.Mint(w, user.ID); err != nil {
		s.log.Error().Err(err).Msg("failed to mint session")
		writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
		return
	}
	writeSuccess(w, http.StatusOK, registerResponse{Username: user.Username, FirstName: user.FirstName})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	writeSuccess(w, http.StatusOK, nil)
}

// meHandler shows the caller their own account.
func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.accounts.Get(r.Context(), actingUser(r.Context()))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, s.tr.T("invalid_credentials"))
			return
		}
		s.log.Error().Err(err).Msg("account lookup failed")
		writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
		return
	}
	writeSuccess(w, http.StatusOK, meResponse{
		Username:     user.Username,
		FirstName:    user.FirstName,
		RegisteredAt: user.RegisteredAt,
	})
}

// healthHandler doubles as a readiness probe: the account count forces one
// round trip to the store.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.accounts.Count(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		writeError(w, http.StatusServiceUnavailable, "degraded")
		return
	}
	writeSuccess(w, http.StatusOK, healthResponse{Users: n})
}

// tokenHandler shows the caller their own pairing token.
func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	token, err := s.pairing.TokenOf(r.Context(), actingUser(r.Context()))
	if err != nil {
		s.log.Error().Err(err).Msg("token lookup failed")
		writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
		return
	}
	writeSuccess(w, http.StatusOK, tokenResponse{Token: token})
}

// bindHandler is the callback half of the pairing contract. It is public:
// the caller proves ownership by presenting the token itself. Outcomes are
// always HTTP 200 with a human-readable `data`, which the chat listener
// relays verbatim.
func (s *Server) bindHandler(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, apiResponse{Status: "error", Data: s.tr.T("bind_invalid_format")})
		return
	}

	err := s.pairing.Bind(r.Context(), req.Token, req.ChatID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, apiResponse{Status: "success", Data: s.tr.T("bind_success")})
	case errors.Is(err, domain.ErrInvalidTokenFormat):
		writeJSON(w, http.StatusOK, apiResponse{Status: "error", Data: s.tr.T("bind_invalid_format")})
	case errors.Is(err, domain.ErrTokenNotFound):
		writeJSON(w, http.StatusOK, apiResponse{Status: "error", Data: s.tr.T("bind_token_not_found")})
	case errors.Is(err, domain.ErrChatTaken):
		writeJSON(w, http.StatusOK, apiResponse{Status: "error", Data: s.tr.T("bind_chat_taken")})
	default:
		s.log.Error().Err(err).Msg("bind failed")
		writeJSON(w, http.StatusOK, apiResponse{Status: "error", Data: s.tr.T("internal_error")})
	}
}

// messageHandler relays text to the caller's bound chat.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, s.tr.T("validation_error"))
		return
	}

	_, err := s.relay.Send(r.Context(), actingUser(r.Context()), req.Text)
	switch {
	case err == nil:
		writeSuccess(w, http.StatusOK, s.tr.T("message_sent"))
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, s.tr.T("validation_error"))
	case errors.Is(err, domain.ErrChatNotBound):
		writeJSON(w, http.StatusOK, apiResponse{Status: "error", Data: s.tr.T("chat_not_bound")})
	case errors.Is(err, domain.ErrDeliveryFailed):
		writeJSON(w, http.StatusOK, apiResponse{Status: "error", Data: s.tr.T("message_not_sent")})
	default:
		s.log.Error().Err(err).Msg("send failed")
		writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
	}
}

// historyHandler lists the caller's messages, oldest first.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.relay.History(r.Context(), actingUser(r.Context()))
	if err != nil {
		s.log.Error().Err(err).Msg("history failed")
		writeError(w, http.StatusInternalServerError, s.tr.T("internal_error"))
		return
	}

	out := make([]historyEntry, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, historyEntry{
			Text:      m.Body,
			Date:      m.CreatedAt,
			Direction: string(m.Direction),
			Status:    string(m.Status),
		})
	}
	writeSuccess(w, http.StatusOK, out)
}
