package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/pkg/response"
)

type AuthHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

// loginRequest accepts the OAuth2 password form (username holds the e-mail)
// as well as a JSON body with either username or email.
type loginRequest struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Register handles POST /register/.
func (h *AuthHandler) Register(c *gin.Context) {
	var in application.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.FromError(c, invalidBody(err), h.Logger)
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u))
}

// Login handles POST /login/.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.FromError(c, invalidBody(err), h.Logger)
		return
	}
	email := strings.TrimSpace(req.Username)
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}
	fields := map[string]string{}
	if email == "" {
		fields["username"] = "is required"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		response.FromError(c, &apperror.ValidationError{Fields: fields}, h.Logger)
		return
	}

	pair, err := h.Svc.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   pair.TokenType,
		ExpiresAt:   pair.AccessTokenExpiry,
	})
}

// VerifyEmail handles GET /verify-email/:id/:token.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	id, ok := userIDParam(c, h.Logger)
	if !ok {
		return
	}
	if _, err := h.Svc.VerifyEmail(c.Request.Context(), id, c.Param("token")); err != nil {
		response.FromError(c, err, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Email verified"})
}
