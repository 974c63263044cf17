package main

import (
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
	"bitbucket.org/mmdatafocus/dealersync_backend/models"
	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}

		// Password never survives the redis round trip, so read the row
		// directly.
		db := config.GetDB()
		var user models.User
		if err := db.WithContext(c.Request.Context()).
			Where("username = ?", strings.TrimSpace(req.Username)).
			Take(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if user.IsActive == nil || !*user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := utils.ComparePassword(user.Password, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token := uuid.NewString()
		if err := config.SetRedisValue("Token:"+token, user.Username, 24*time.Hour); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		jwtToken, err := utils.JwtGenerate(user.ID, user.Username, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"jwt":      jwtToken,
			"username": user.Username,
			"name":     user.Name,
			"role":     user.Role,
		})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := utils.GetTokenFromContext(c.Request.Context())
		if ok && token != "" {
			_ = config.RemoveRedisKey("Token:" + token)
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
