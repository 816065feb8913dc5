package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"fliqk/internal/config"
	"fliqk/internal/db"
	"fliqk/internal/middleware"
	"fliqk/internal/models"
	"fliqk/internal/validation"
)

// AccountStore is the persistence the auth handler needs.
type AccountStore interface {
	Register(ctx context.Context, reg db.Registration) (*models.User, error)
	GetUserByNickname(ctx context.Context, nickname string) (*models.User, error)
	BindDevice(ctx context.Context, userID uuid.UUID, deviceID string) error
	UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs models.Preferences) error
}

// AuthHandler handles registration, login and the current user's settings.
type AuthHandler struct {
	store  AccountStore
	cfg    *config.Config
	yaml   *config.YAMLConfig
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler. yamlCfg may be nil.
func NewAuthHandler(store AccountStore, cfg *config.Config, yamlCfg *config.YAMLConfig, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{store: store, cfg: cfg, yaml: yamlCfg, logger: logger}
}

// defaultPreferences seeds a new account from the YAML defaults and the negotiated locale.
func (h *AuthHandler) defaultPreferences(locale string) models.Preferences {
	var prefs models.Preferences
	if h.yaml != nil {
		prefs.Theme = h.yaml.Defaults.Theme
		prefs.Sort = h.yaml.Defaults.Sort
	}
	prefs.Locale = locale
	return prefs.Normalize(h.yaml.DefaultLocale(h.cfg.DefaultLocale))
}

func (h *AuthHandler) starterCollections() []models.Collection {
	var out []models.Collection
	for _, c := range h.yaml.StarterCollections() {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		out = append(out, models.Collection{Name: c.Name, Emoji: c.Emoji, Color: c.Color})
	}
	return out
}

// Register redeems an invite token and signs the new user in.
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body struct {
		Nickname string `json:"nickname"`
		Token    string `json:"token"`
		DeviceID string `json:"device_id"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	nickname := strings.TrimSpace(body.Nickname)
	if valid, msg := validation.ValidateNickname(nickname); !valid {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}
	token := strings.TrimSpace(body.Token)
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid token")
	}

	user, err := h.store.Register(c.Context(), db.Registration{
		Nickname:    nickname,
		Token:       token,
		DeviceID:    strings.TrimSpace(body.DeviceID),
		Preferences: h.defaultPreferences(middleware.CurrentLocale(c)),
		Collections: h.starterCollections(),
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrInvalidToken):
			return jsonError(c, fiber.StatusBadRequest, "invalid token")
		case errors.Is(err, db.ErrNicknameTaken):
			return jsonError(c, fiber.StatusConflict, "nickname already taken")
		}
		h.logger.Error("registration failed", zap.String("nickname", nickname), zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "failed to register")
	}

	if err := middleware.SignIn(c, user.ID); err != nil {
		return err
	}
	h.logger.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))

	c.Status(fiber.StatusCreated)
	return jsonSuccess(c, user)
}

// Login signs in by nickname. The first login binds the account to the device;
// later logins from another device are refused.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		Nickname string `json:"nickname"`
		DeviceID string `json:"device_id"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(body.Nickname) == "" || strings.TrimSpace(body.DeviceID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "nickname and device_id are required")
	}

	user, err := h.store.GetUserByNickname(c.Context(), strings.TrimSpace(body.Nickname))
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "unknown nickname")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to sign in")
	}

	if err := h.store.BindDevice(c.Context(), user.ID, strings.TrimSpace(body.DeviceID)); err != nil {
		if errors.Is(err, db.ErrDeviceMismatch) {
			return jsonError(c, fiber.StatusForbidden, "this account is linked to another device")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to sign in")
	}

	if err := middleware.SignIn(c, user.ID); err != nil {
		return err
	}
	return jsonSuccess(c, user)
}

// Logout ends the session.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if err := middleware.SignOut(c); err != nil {
		return err
	}
	return jsonSuccess(c, nil)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return jsonSuccess(c, user)
}

// UpdatePreferences replaces the signed-in user's preferences. Missing or
// unknown values fall back to defaults; a new locale also updates the cookie.
func (h *AuthHandler) UpdatePreferences(c fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var prefs models.Preferences
	if err := json.Unmarshal(c.Body(), &prefs); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if prefs.Locale != "" && !h.isSupportedLocale(prefs.Locale) {
		return jsonError(c, fiber.StatusBadRequest, "unsupported locale")
	}
	prefs = prefs.Normalize(user.Preferences.Locale)

	if err := h.store.UpdatePreferences(c.Context(), user.ID, prefs); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to update preferences")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.LocaleCookie,
		Value:    prefs.Locale,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		SameSite: "Lax",
	})
	user.Preferences = prefs
	return jsonSuccess(c, user)
}

func (h *AuthHandler) isSupportedLocale(locale string) bool {
	for _, l := range h.cfg.SupportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}
