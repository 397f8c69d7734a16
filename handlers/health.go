package handlers

import (
	"net/http"

	"wellbe/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the last dependency check. It answers 503 while MongoDB
// is unreachable.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	state := "ok"
	if !status.Mongo {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(code, gin.H{"status": state, "checks": status})
}
