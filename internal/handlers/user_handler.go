package handlers

import (
	"errors"
	"net/http"
	"strings"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/database"
	"inventory-ledger/internal/middleware"
	"inventory-ledger/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minUsernameLength = 3

// --- Admin-only user management ---

func GetUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("created_at DESC, id DESC").Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func CreateUser(c *gin.Context) {
	var input CreateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 1. Validate
	input.Username = strings.TrimSpace(input.Username)
	if len(input.Username) < minUsernameLength {
		badRequest(c, "Username must be at least 3 characters")
		return
	}
	if len(input.Password) < minPasswordLength {
		badRequest(c, "Password must be at least 6 characters")
		return
	}
	if input.Role == "" {
		input.Role = models.RoleUser
	}
	if input.Role != models.RoleUser && input.Role != models.RoleAdmin {
		badRequest(c, "Role must be admin or user")
		return
	}

	// 2. Hash the Password
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	// 3. Save to DB
	user := models.User{Username: input.Username, PasswordHash: string(hash), Role: input.Role}
	if err := database.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(c, &apperr.DuplicateError{Message: "Username already exists"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func DeleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if id == c.GetUint(middleware.UserIDKey) {
		badRequest(c, "Cannot delete your own account")
		return
	}

	res := database.DB.Delete(&models.User{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, apperr.NotFound("user", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func ResetPassword(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input ResetPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil || len(input.NewPassword) < minPasswordLength {
		badRequest(c, "Password must be at least 6 characters")
		return
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, apperr.NotFound("user", id))
			return
		}
		respondError(c, err)
		return
	}
	if err := setPassword(user.ID, input.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset for " + user.Username})
}
