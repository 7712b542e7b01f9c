package server

import (
	"net/http"
	"strconv"

	"rdm-dashboard/src/helpers"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// failureBody mirrors the {success, data:{message}} envelope of the endpoint.
func failureBody(message string) gin.H {
	return gin.H{
		"success": false,
		"data":    gin.H{"message": message},
	}
}

// -----------------------------------------------------------------------------

// fail answers with the failure envelope. Client errors carry their own text;
// backend failures carry the user-facing message.
func (s *DashboardServer) fail(c *gin.Context, code int, err error) {
	message := err.Error()
	if code >= http.StatusInternalServerError {
		message = helpers.UserMessage(err, s.Strings.Get("error"))
	}
	s.Logger.Debug("%s %s failed (%d): %v", c.Request.Method, c.Request.URL.Path, code, err)
	c.JSON(code, failureBody(message))
}

// -----------------------------------------------------------------------------

// parseLimit accepts a positive integer; anything else means "use the default".
func parseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// -----------------------------------------------------------------------------

func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
