package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/digishelf/digishelf/internal/auth"
	"github.com/digishelf/digishelf/internal/entities"
)

// AuthController handles registration, login, and session endpoints.
type AuthController struct {
	service        *auth.Service
	sessionManager *auth.SessionManager
	rateLimiter    *auth.RateLimiter
}

func NewAuthController(service *auth.Service, sessionManager *auth.SessionManager, rateLimiter *auth.RateLimiter) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
	}
}

type registerRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Phone     string `json:"phone"`
	Course    string `json:"course"`
	Year      int    `json:"year"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// Register creates a member account and returns a token.
// POST /api/auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "student_id, name, email and password are required")
		return
	}

	user, err := ac.service.Register(auth.RegisterInput{
		StudentID: req.StudentID,
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Course:    req.Course,
		Year:      req.Year,
	}, c.ClientIP())
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			respondConflict(c, err.Error())
			return
		}
		respondBadRequest(c, err.Error())
		return
	}

	token, err := ac.service.IssueToken(user)
	if err != nil {
		respondInternalError(c, err, "issue token")
		return
	}

	respondCreated(c, authResponse{Token: token, User: user})
}

// Login authenticates a member and returns a token. A cookie session is
// created as well when the session manager is configured.
// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	ac.login(c, false)
}

// AdminLogin authenticates an admin account.
// POST /api/auth/admin/login
func (ac *AuthController) AdminLogin(c *gin.Context) {
	ac.login(c, true)
}

func (ac *AuthController) login(c *gin.Context, adminOnly bool) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	ip := c.ClientIP()
	if ac.rateLimiter != nil {
		if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Email); !allowed {
			auth.TooManyAttempts(c, retryAfter)
			return
		}
	}

	var user *entities.User
	var err error
	if adminOnly {
		user, err = ac.service.AuthenticateAdmin(req.Email, req.Password, ip)
	} else {
		user, err = ac.service.Authenticate(req.Email, req.Password, ip)
	}
	if err != nil {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(ip, req.Email)
		}
		switch {
		case errors.Is(err, auth.ErrAccountBlocked):
			respondError(c, http.StatusForbidden, "account is blocked")
		case errors.Is(err, auth.ErrAccountLocked):
			respondError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, auth.ErrNotAdmin):
			respondError(c, http.StatusForbidden, "admin account required")
		default:
			// Same response for unknown accounts and wrong passwords
			respondError(c, http.StatusUnauthorized, "invalid credentials")
		}
		return
	}

	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(ip, req.Email)
	}

	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			respondInternalError(c, err, "create session")
			return
		}
	}

	token, err := ac.service.IssueToken(user)
	if err != nil {
		respondInternalError(c, err, "issue token")
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Logout destroys the cookie session. Bearer tokens simply expire.
// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			respondInternalError(c, err, "destroy session")
			return
		}
	}
	respondSuccess(c, "logged out")
}

// Verify returns the account behind the current credentials.
// GET /api/auth/verify
func (ac *AuthController) Verify(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := ac.service.GetUserByID(userID)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword updates the caller's password.
// POST /api/auth/password
func (ac *AuthController) ChangePassword(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}

	if err := ac.service.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			respondError(c, http.StatusForbidden, "current password is incorrect")
			return
		}
		respondBadRequest(c, err.Error())
		return
	}

	respondSuccess(c, "password changed")
}
