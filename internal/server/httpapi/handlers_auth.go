package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/server/models"
	"github.com/samifathi/invoice-api/internal/server/services"
)

type registerRequest struct {
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	Role       models.Role       `json:"role"`
	Department models.Department `json:"department"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileUpdateRequest struct {
	Name       *string            `json:"name"`
	Department *models.Department `json:"department"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := s.users.Register(c.Request.Context(), services.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
	})
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "User registered successfully", gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Login successful", gin.H{
		"user":  result.User,
		"token": result.Token,
	})
}

func (s *Server) getProfile(c *gin.Context) {
	identity := identityFromContext(c)

	user, err := s.users.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		s.respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "", gin.H{"user": user})
}

func (s *Server) updateProfile(c *gin.Context) {
	identity := identityFromContext(c)

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), identity.UserID, services.ProfileUpdateInput{
		Name:       req.Name,
		Department: req.Department,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		s.respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}

func (s *Server) changePassword(c *gin.Context) {
	identity := identityFromContext(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	err := s.users.ChangePassword(c.Request.Context(), identity.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
			return
		}
		s.respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Password changed successfully", nil)
}
