package handlers

import (
	"net/http"
	"strings"

	"inventory-ledger/internal/auth"
	"inventory-ledger/internal/database"
	"inventory-ledger/internal/middleware"
	"inventory-ledger/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Username and password are required")
		return
	}

	// 2. Find User in DB
	var user models.User
	if err := database.DB.Where("username = ?", strings.TrimSpace(input.Username)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Verify Password (Bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 4. Generate JWT Token
	token, err := auth.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Verify echoes the identity carried by a still-valid token
func Verify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user": gin.H{
			"id":       c.GetUint(middleware.UserIDKey),
			"username": c.GetString(middleware.UsernameKey),
			"role":     c.GetString(middleware.RoleKey),
		},
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func ChangePassword(c *gin.Context) {
	var input ChangePasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Current and new password are required")
		return
	}
	if len(input.NewPassword) < minPasswordLength {
		badRequest(c, "New password must be at least 6 characters")
		return
	}

	var user models.User
	if err := database.DB.First(&user, c.GetUint(middleware.UserIDKey)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	if err := setPassword(user.ID, input.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func setPassword(userID uint, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return database.DB.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", string(hash)).Error
}
