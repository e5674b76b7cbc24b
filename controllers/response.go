package controllers

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"lendingdesk/middleware"
	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// exposeInternalErrors включает детали внутренних ошибок в ответах (все окружения, кроме production)
var exposeInternalErrors atomic.Bool

// SetExposeInternalErrors задается один раз при сборке роутера
func SetExposeInternalErrors(expose bool) {
	exposeInternalErrors.Store(expose)
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondList(c *gin.Context, data interface{}, meta utils.PageMeta) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"meta":    meta,
	})
}

// respondError - единая точка преобразования ошибок в HTTP-ответ
func respondError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	body := gin.H{
		"success": false,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}

	if appErr.Kind == services.KindInternal {
		_ = c.Error(err)
		utils.GetMetrics().RecordError(appErr.Kind.String())
		if exposeInternalErrors.Load() {
			if appErr.Err != nil {
				body["error"] = appErr.Err.Error()
			}
		} else {
			body["message"] = "internal server error"
		}
	}

	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), body)
}

// bindJSON разбирает тело запроса; ошибки формата превращаются в 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, services.NewValidationError("invalid request body",
			utils.FieldError{Field: "body", Message: err.Error()}))
		return false
	}
	return true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, services.NewValidationError("invalid identifier",
			utils.FieldError{Field: name, Message: "must be a valid UUID"}))
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(c, services.NewValidationError("invalid identifier",
			utils.FieldError{Field: name, Message: "must be a valid UUID"}))
		return nil, false
	}
	return &id, true
}

func requestContext(c *gin.Context) (services.RequestContext, bool) {
	rc, ok := middleware.RequestContextFrom(c)
	if !ok {
		respondError(c, services.NewUnauthorized("authentication required"))
		return services.RequestContext{}, false
	}
	return rc, true
}

func pageFromQuery(c *gin.Context) utils.Page {
	return utils.NewPage(c.Query("page"), c.Query("pageSize"))
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseDate принимает дату в виде YYYY-MM-DD или RFC 3339
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	if raw == "" {
		return time.Time{}, services.NewValidationError("validation failed",
			utils.FieldError{Field: field, Message: "is required"})
	}
	return time.Time{}, services.NewValidationError("validation failed",
		utils.FieldError{Field: field, Message: "must be a date in YYYY-MM-DD format"})
}
