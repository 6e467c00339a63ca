package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dev-debabrata/devchat-backend/internal/database"
	"github.com/dev-debabrata/devchat-backend/internal/models"
	apperrors "github.com/dev-debabrata/devchat-backend/pkg/errors"
	"github.com/dev-debabrata/devchat-backend/pkg/logger"
	"github.com/dev-debabrata/devchat-backend/pkg/utils"
)

type SignupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Signup(c *gin.Context) {
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, apperrors.BadRequest(err.Error()))
		return
	}

	var existing models.User
	if err := database.DB.Select("id").First(&existing, "email = ?", input.Email).Error; err == nil {
		fail(c, apperrors.BadRequest("Email already in use"))
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, apperrors.Internal("Failed to create account"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		fail(c, apperrors.Internal("Failed to create account"))
		return
	}

	user := models.User{
		ID:       utils.GenerateID(),
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hash),
	}

	if err := database.DB.Create(&user).Error; err != nil {
		logger.Error().Err(err).Msg("user create failed")
		fail(c, apperrors.Internal("Failed to create account"))
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		fail(c, apperrors.Internal("Failed to issue token"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, apperrors.BadRequest(err.Error()))
		return
	}

	var user models.User
	if err := database.DB.First(&user, "email = ?", input.Email).Error; err != nil {
		fail(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		fail(c, apperrors.Unauthorized("Invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		fail(c, apperrors.Internal("Failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout acknowledges the logout. Tokens are stateless bearer tokens, so
// there is nothing to revoke server-side; the client discards its copy.
func Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the authenticated user's own record.
func Me(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userId).Error; err != nil {
		fail(c, apperrors.NotFound("User not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateProfileInput struct {
	Name  *string `json:"name"`
	Bio   *string `json:"bio"`
	Image *string `json:"image"`
}

func UpdateProfile(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, apperrors.BadRequest(err.Error()))
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Image != nil {
		updates["image"] = *input.Image
	}

	if len(updates) == 0 {
		fail(c, apperrors.BadRequest("Nothing to update"))
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", userId).Updates(updates).Error; err != nil {
		fail(c, apperrors.Internal("Failed to update profile"))
		return
	}

	var user models.User
	database.DB.First(&user, "id = ?", userId)

	c.JSON(http.StatusOK, gin.H{"user": user})
}
