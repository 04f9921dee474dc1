package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Confirmed reports whether a destructive request was confirmed, either by the
// decoded body flag or by ?confirm=true.
func Confirmed(c *gin.Context, bodyConfirm bool) bool {
	if bodyConfirm {
		return true
	}
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}
