package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/services"
	"github.com/intervuehq/intervue/internal/utils"
)

type AuthHandler struct {
	svc services.AuthService
}

func NewAuthHandler(svc services.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Name         string `json:"name"`
	UserType     string `json:"user_type" binding:"required"`
	Organization string `json:"organization"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userPayload struct {
	ID           string               `json:"id"`
	Email        string               `json:"email"`
	Name         string               `json:"name"`
	UserType     models.UserType      `json:"user_type"`
	Organization *models.Organization `json:"organization,omitempty"`
}

func authPayload(res *services.AuthResult) gin.H {
	return gin.H{
		"token": res.Token,
		"user": userPayload{
			ID:           res.User.ID,
			Email:        res.User.Email,
			Name:         res.User.Name,
			UserType:     res.User.UserType,
			Organization: res.Organization,
		},
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Register", "invalid request body", err))
		return
	}

	res, err := h.svc.Register(c.Request.Context(), services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		UserType:     models.UserType(req.UserType),
		Organization: req.Organization,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	payload := authPayload(res)
	payload["message"] = "User registered successfully"
	c.JSON(http.StatusCreated, payload)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Login", "invalid request body", err))
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	payload := authPayload(res)
	payload["message"] = "Login successful"
	c.JSON(http.StatusOK, payload)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	res, err := h.svc.Profile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": userPayload{
			ID:           res.User.ID,
			Email:        res.User.Email,
			Name:         res.User.Name,
			UserType:     res.User.UserType,
			Organization: res.Organization,
		},
	})
}
