package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

// parseIDParam reads a numeric path parameter, sending a 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid "+name, err.Error())
		return 0, false
	}
	return uint(id), true
}
