package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/fieldservice-be/internal/api/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var registerOnce sync.Once

// registerValidation makes binding errors report JSON field names
func registerValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// errorStatus maps a service error to its HTTP status code
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidReference):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrWorkflowNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoJobTypes):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransitionNotAllowed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (h *JobHandler) writeError(c *gin.Context, err error) {
	status := errorStatus(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		c.JSON(status, gin.H{
			"status":  status,
			"message": "internal server error",
		})
		return
	}

	h.logger.Warn("Request rejected",
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{
			"status":  status,
			"message": domain.ErrValidation.Error(),
			"errors":  verr.Fields,
		})
		return
	}

	c.JSON(status, gin.H{
		"status":  status,
		"message": err.Error(),
	})
}

// writeBindError reports a request body or query that failed to bind.
// Decoder errors are reduced to the offending field name.
func (h *JobHandler) writeBindError(c *gin.Context, err error) {
	h.writeError(c, domain.NewValidationError(bindMessages(err)...))
}

func bindMessages(err error) []string {
	var typeErr *json.UnmarshalTypeError
	var parseErr *time.ParseError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &typeErr):
		return []string{fmt.Sprintf("%s is invalid", jsonField(typeErr.Field))}
	case errors.As(err, &parseErr):
		return []string{"date is invalid"}
	case errors.As(err, &syntaxErr),
		errors.Is(err, io.ErrUnexpectedEOF):
		return []string{"request body is malformed"}
	case errors.Is(err, io.EOF):
		return []string{"request body is required"}
	}
	return domain.FieldMessages(err)
}

// jsonField returns the last segment of a dotted decoder field path
func jsonField(path string) string {
	if path == "" {
		return "request body"
	}
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// pathID returns the :id path parameter, writing a 400 when it is not a UUID
func (h *JobHandler) pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(c, domain.NewValidationError("id must be a valid UUID"))
		return "", false
	}
	return id, true
}
