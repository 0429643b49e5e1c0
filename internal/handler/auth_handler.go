package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"credential_service/internal/middleware"
	"credential_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const refreshCookieName = "refreshToken"

// AuthHandler handles authentication requests
type AuthHandler struct {
	service       service.AuthService
	secureCookies bool
	refreshTTL    time.Duration
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the
// refresh cookie Secure and should be set in production.
func NewAuthHandler(s service.AuthService, secureCookies bool, refreshTTL time.Duration) *AuthHandler {
	registerValidators()
	return &AuthHandler{service: s, secureCookies: secureCookies, refreshTTL: refreshTTL}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Role      string `json:"role" binding:"required,oneof=user admin"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Email     string `json:"email" binding:"required,min=4,max=60,email"`
		Password  string `json:"password" binding:"required,password"`
		Phone     string `json:"phone" binding:"required,min=8,max=15"`
		Gender    string `json:"gender"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Role:      req.Role,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Gender:    req.Gender,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful, check your email",
		"user":    user,
	})
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.service.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account verified successfully. Login to your account",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.Phone) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Provide your email or phone number."})
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken, int(h.refreshTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Login successful",
		"user":        result.User,
		"accessToken": result.AccessToken,
	})
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.service.ResendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "New OTP sent successfully."})
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	result, err := h.service.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           "Forgot password email sent successfully",
		"forgottenPassword": result,
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		OTP      string `json:"otp" binding:"required"`
		Password string `json:"password" binding:"required,password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.OTP, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset successful"})
}

// Refresh issues a new access token from the refresh cookie or body
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	// An empty body is fine when the cookie is present
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondValidation(c, err)
		return
	}
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Cookie(refreshCookieName)
	}

	accessToken, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "accessToken": accessToken})
}

// Logout clears the refresh cookie. Issued tokens stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out"})
}

// Me returns the caller's account
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		respondError(c, service.ErrUnauthorized)
		return
	}
	h.writeAccount(c, identity.AccountID)
}

// GetAccount returns any account by id, for admins
func (h *AuthHandler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid account ID"})
		return
	}
	h.writeAccount(c, id)
}

func (h *AuthHandler) writeAccount(c *gin.Context, id uuid.UUID) {
	user, err := h.service.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, value, maxAge, "/", "", h.secureCookies, true)
}

// RegisterAuthRoutes registers auth routes. authMW guards every route
// that needs a resolved caller.
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/verify-otp", h.VerifyOTP)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/resend-otp", h.ResendOTP)
		authGroup.POST("/forgot-password", h.ForgotPassword)
		authGroup.POST("/reset-password", h.ResetPassword)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", authMW, h.Me)
	}

	accountGroup := rg.Group("/account", authMW, middleware.ProfileCompleteMiddleware())
	{
		accountGroup.GET("/profile", h.Me)
	}

	adminGroup := rg.Group("/admin", authMW, middleware.AdminMiddleware())
	{
		adminGroup.GET("/accounts/:id", h.GetAccount)
	}
}
