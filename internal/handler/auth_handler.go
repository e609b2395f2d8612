package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gecr-dev/campus-api/internal/models"
	"github.com/gecr-dev/campus-api/internal/service"
	appErrors "github.com/gecr-dev/campus-api/pkg/errors"
	"github.com/gecr-dev/campus-api/pkg/response"
)

// AuthHandler exposes login for both roles.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login checks credentials and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
