package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/restaurant-table-reservation/internal/booking"
    "github.com/iliyamo/restaurant-table-reservation/internal/config"
    "github.com/iliyamo/restaurant-table-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/repository"
    "github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// AuthHandler serves registration, login and token rotation.
type AuthHandler struct {
    Cfg   config.Config
    Svc   *booking.Service
    Store *repository.Store
    Log   *zap.Logger
}

func NewAuthHandler(cfg config.Config, svc *booking.Service, store *repository.Store, log *zap.Logger) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Svc: svc, Store: store, Log: log}
}

type registerReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    FullName string `json:"full_name"`
}

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}

type userPart struct {
    ID       uint64 `json:"id"`
    Email    string `json:"email"`
    Role     string `json:"role"`
    ClientID uint64 `json:"client_id,omitempty"`
}

type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func (h *AuthHandler) now() time.Time { return h.Svc.Policy().Now() }

// issue creates an access token and a stored refresh token for u.
func (h *AuthHandler) issue(ctx context.Context, u *model.User) (authResp, error) {
    now := h.now()
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, time.Duration(h.Cfg.AccessTTLMin)*time.Minute, now)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays, now)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Store.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp, now); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    userPart{ID: u.ID, Email: u.Email, Role: string(u.Role)},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    }, nil
}

// Register creates a client account and its client profile and logs it in.
// Staff accounts are only created with the create-user command.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, client, err := h.Svc.RegisterClient(ctx, booking.Registration{Email: req.Email, Password: req.Password, FullName: req.FullName}, h.Cfg.BcryptCost)
    if err != nil {
        return fail(c, h.Log, err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, h.Log, err)
    }
    resp.User.ClientID = client.ID
    h.Log.Info("client registered", zap.Uint64("user_id", u.ID), zap.Uint64("client_id", client.ID))
    return c.JSON(http.StatusCreated, resp)
}

// Login verifies the password and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if strings.TrimSpace(req.Email) == "" || req.Password == "" {
        return badRequest(c, "email/password required")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Store.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return fail(c, h.Log, err)
    }
    if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, h.Log, err)
    }
    if u.Role == model.RoleClient {
        if cl, err := h.Svc.ClientForUser(ctx, u.ID); err == nil {
            resp.User.ClientID = cl.ID
        }
    }
    return c.JSON(http.StatusOK, resp)
}

// refreshOwner validates a raw refresh token and loads its user.
func (h *AuthHandler) refreshOwner(ctx context.Context, raw string) (*model.User, string, error) {
    hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
    uid, err := h.Store.Tokens.ValidateRefresh(ctx, hash, h.now())
    if err != nil {
        return nil, "", err
    }
    u, err := h.Store.Users.GetByID(ctx, uid)
    if err != nil {
        return nil, "", err
    }
    if !u.IsActive {
        return nil, "", repository.ErrTokenInvalid
    }
    return u, hash, nil
}

func (h *AuthHandler) refreshFailed(c echo.Context, err error) error {
    if errors.Is(err, repository.ErrTokenInvalid) || errors.Is(err, repository.ErrUserNotFound) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    return fail(c, h.Log, err)
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refresh_token required")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, hash, err := h.refreshOwner(ctx, req.RefreshToken)
    if err != nil {
        return h.refreshFailed(c, err)
    }
    if err := h.Store.Tokens.RevokeByHash(ctx, hash, h.now()); err != nil {
        return fail(c, h.Log, err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// RefreshAccess returns a new access token and keeps the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return badRequest(c, "refresh_token required")
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, _, err := h.refreshOwner(ctx, req.RefreshToken)
    if err != nil {
        return h.refreshFailed(c, err)
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, time.Duration(h.Cfg.AccessTTLMin)*time.Minute, h.now())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"access": tokenPart{Token: access.Token, Expires: access.Exp}})
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when no body token is given.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
        _, hash, err := h.refreshOwner(ctx, raw)
        if err != nil {
            return h.refreshFailed(c, err)
        }
        if err := h.Store.Tokens.RevokeByHash(ctx, hash, h.now()); err != nil {
            return fail(c, h.Log, err)
        }
        return c.NoContent(http.StatusNoContent)
    }

    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if !strings.HasPrefix(auth, "Bearer ") {
        return badRequest(c, "provide Authorization header or refresh_token")
    }
    claims, _, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    uid, err := claims.UserID()
    if err != nil || uid == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Store.Tokens.RevokeAllForUser(ctx, uid, h.now()); err != nil {
        return fail(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me describes the authenticated caller.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, _ := middleware.UserID(c)
    u, err := h.Store.Users.GetByID(c.Request().Context(), uid)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return fail(c, h.Log, err)
    }
    out := echo.Map{"id": u.ID, "email": u.Email, "role": u.Role}
    if u.Role == model.RoleClient {
        if cl, err := h.Svc.ClientForUser(c.Request().Context(), u.ID); err == nil {
            out["client"] = clientView(*cl)
        }
    }
    return c.JSON(http.StatusOK, out)
}
