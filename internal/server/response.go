package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/manash/adhook/internal/apierr"
)

const errorKey = "adhook.error"

type errorBody struct {
	Error string `json:"error"`
}

// RespondError writes {error} with the status of the error's kind.
func RespondError(c *gin.Context, err error) {
	msg := "Server error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	c.Set(errorKey, msg)
	c.JSON(apierr.StatusOf(err), errorBody{Error: msg})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
