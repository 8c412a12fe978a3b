package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"stockdash/internal/api"
	"stockdash/internal/jsonutil"
	"stockdash/internal/store"
)

func (s *Server) ready(c fiber.Ctx) error {
	if err := s.repo.Ping(c.Context()); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func (s *Server) login(c fiber.Ctx) error {
	var req api.LoginRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(api.ErrorBody{Error: "invalid request body"})
	}
	if req.Login == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(api.ErrorBody{Error: "login and password are required"})
	}

	u, err := s.repo.Authenticate(c.Context(), req.Login, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		s.log.Info().Str("login", req.Login).Msg("login rejected")
		return c.Status(http.StatusUnauthorized).JSON(api.ErrorBody{Error: "invalid credentials"})
	}
	if err != nil {
		return err
	}

	token := s.sessions.Issue(u.ID)
	s.metrics.SetSessions(s.sessions.Len())
	s.log.Info().Str("user_id", u.ID).Bool("admin", u.IsAdmin).Msg("login")
	return c.JSON(api.LoginResponse{Token: token, User: publicUser(u)})
}

func (s *Server) logout(c fiber.Ctx) error {
	if token, ok := c.Locals("token").(string); ok {
		s.sessions.Revoke(token)
	}
	s.metrics.SetSessions(s.sessions.Len())
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) getUserConfig(c fiber.Ctx) error {
	u := currentUser(c)
	saved, err := s.repo.GetUIConfig(c.Context(), u.ID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(api.UserConfig{UserID: u.ID, Config: map[string]json.RawMessage{}})
	}
	if err != nil {
		return err
	}
	return c.JSON(userConfig(saved))
}

func (s *Server) putUserConfig(c fiber.Ctx) error {
	u := currentUser(c)
	raw, err := decodeConfig(c.Body())
	if err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(api.ErrorBody{Error: err.Error()})
	}

	saved, err := s.repo.PutUIConfig(c.Context(), u.ID, raw)
	s.metrics.ConfigSaved(err == nil)
	if err != nil {
		return err
	}
	s.log.Debug().Str("user_id", u.ID).Int("bytes", len(raw)).Msg("ui config saved")
	return c.JSON(userConfig(saved))
}

func (s *Server) pushUserConfig(c fiber.Ctx) error {
	u := currentUser(c)
	if !s.pushes.allow(u.ID) {
		return c.Status(http.StatusTooManyRequests).JSON(api.ErrorBody{Error: "push rate limit exceeded"})
	}
	raw, err := decodeConfig(c.Body())
	if err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(api.ErrorBody{Error: err.Error()})
	}

	n, err := s.repo.PushUIConfigToAll(c.Context(), raw)
	s.metrics.Pushed(err == nil, n)
	if err != nil {
		return err
	}
	s.log.Info().Str("by", u.ID).Int("updated_users", n).Msg("ui config pushed")
	return c.JSON(api.PushResult{UpdatedUsers: n})
}

func (s *Server) getLMSConfig(c fiber.Ctx) error {
	s.lmsMu.RLock()
	cfg := s.lms
	s.lmsMu.RUnlock()
	return c.JSON(cfg)
}

func (s *Server) putLMSConfig(c fiber.Ctx) error {
	var cfg api.LMSConfig
	if err := jsonutil.UnmarshalWithContext(c.Body(), &cfg, "decode lms config"); err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(api.ErrorBody{Error: err.Error()})
	}
	s.lmsMu.Lock()
	s.lms = cfg
	s.lmsMu.Unlock()
	s.log.Info().Str("version", cfg.Version).Msg("lms config updated")
	return c.JSON(cfg)
}

// decodeConfig extracts the "config" object of a request body and returns it
// re-encoded for storage.
func decodeConfig(body []byte) (string, error) {
	fields, err := jsonutil.UnmarshalObject(body, "decode request")
	if err != nil {
		return "", err
	}
	raw, ok := fields["config"]
	if !ok {
		return "", errors.New("config is required")
	}
	config, err := jsonutil.UnmarshalObject(raw, "decode config")
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func userConfig(saved store.UIConfig) api.UserConfig {
	out := api.UserConfig{UserID: saved.UserID, Config: map[string]json.RawMessage{}}
	if saved.Config != "" {
		if m, err := jsonutil.UnmarshalObject([]byte(saved.Config), "stored config"); err == nil {
			out.Config = m
		}
	}
	if t := saved.UpdatedTime(); !t.IsZero() {
		out.UpdatedAt = &t
	}
	return out
}

func publicUser(u store.User) api.User {
	return api.User{ID: u.ID, Login: u.Login, IsAdmin: u.IsAdmin}
}
