package handler

import (
	"errors"
	"net/http"

	"github.com/crispincharbel-source/cierp/internal/service"
	"github.com/crispincharbel-source/cierp/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps the service error taxonomy to transport codes: missing
// references are 404, guard failures are 409, everything else is 500.
func respondError(c *gin.Context, err error) {
	var (
		notFound  *service.ReferenceNotFoundError
		badState  *service.InvalidStateError
		empty     *service.EmptyDocumentError
		finalized *service.AlreadyFinalizedError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.As(err, &badState), errors.As(err, &empty), errors.As(err, &finalized):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// pathID parses the :id path parameter, answering 400 itself on garbage input.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id: "+err.Error()))
		return uuid.Nil, false
	}
	return id, true
}
