package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status pairs an error with the HTTP status it is reported as.
type Status struct {
	Err  error
	Code int
}

// ErrorFromMapping writes err with the first matching status, or 500 when
// nothing matches. Unmatched errors are not echoed to the client.
func ErrorFromMapping(c *gin.Context, err error, mapping []Status) {
	for _, m := range mapping {
		if errors.Is(err, m.Err) {
			ErrorResponse(c, m.Code, err.Error())
			return
		}
	}
	_ = c.Error(err)
	ErrorResponse(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
