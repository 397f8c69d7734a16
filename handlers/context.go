package handlers

import (
	"wellbe/models"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
)

// actor returns the caller identity the auth middleware placed on c.
func actor(c *gin.Context) models.Actor {
	return models.Actor{UserID: c.GetString("userID"), Role: c.GetString("role")}
}

// bindJSON decodes the body into dst and answers 400 on failure. An empty
// body is accepted.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.RespondError(c, utils.InvalidInput("invalid request body: %v", err))
		return false
	}
	return true
}
