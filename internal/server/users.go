package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"tgcrm/internal/model"
)

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.GetAllUsers(c.Request.Context())
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type createUserRequest struct {
	Username string     `json:"username" binding:"required"`
	Password string     `json:"password" binding:"required,min=8"`
	FullName string     `json:"full_name" binding:"required"`
	Role     model.Role `json:"role" binding:"required"`
}

// handleCreateUser enforces the one-step hierarchy: a superadmin creates
// admins, an admin creates dispatchers. The new account records its
// creator as parent.
func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	caller := callerRole(c)
	if !caller.Creates(req.Role) {
		c.JSON(http.StatusForbidden, gin.H{"error": "role not allowed"})
		return
	}

	existing, err := s.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		s.log.ErrorContext(c.Request.Context(), "User lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	parentID := callerID(c)
	user := &model.CRMUser{
		Username:     req.Username,
		FullName:     req.FullName,
		Role:         req.Role,
		ParentID:     &parentID,
		PasswordHash: string(hash),
	}
	if err := s.store.SaveUser(c.Request.Context(), user); err != nil {
		s.log.ErrorContext(c.Request.Context(), "Failed to save user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}
