package handler

import (
	"errors"
	"net/http"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/dto"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// uuidParam reads a uuid path parameter, answering 400 when it is malformed
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+label+" format")
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	return bound(c, c.ShouldBindJSON(req))
}

func bindQuery(c *gin.Context, req any) bool {
	return bound(c, c.ShouldBindQuery(req))
}

// bound answers a failed bind with per-field details when the validator
// produced them
func bound(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		middleware.HandleValidationError(c, verrs)
	} else {
		fail(c, dto.ErrCodeInvalidJSON, err.Error())
	}
	return false
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.OK(data))
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.OK(data))
}

func paged(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.Paged(data, total, page, pageSize))
}

func badRequest(c *gin.Context, message string) {
	fail(c, dto.ErrCodeBadRequest, message)
}

// fail answers with the status registered for code
func fail(c *gin.Context, code, message string) {
	write(c, code, dto.Fail(code, message, middleware.RequestIDFrom(c)))
}

// write sends an error envelope and records its code for the metrics and
// tracing middleware
func write(c *gin.Context, code string, resp dto.Response) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(dto.HTTPStatus(code), resp)
}

// respondErr converts domain and transient errors into the response
// envelope. Anything else is logged and reported as an internal error.
func respondErr(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	switch {
	case errors.As(err, &domainErr):
		code := dto.FromDomainCode(domainErr.Code)
		write(c, code, dto.Fail(code, domainErr.Message, middleware.RequestIDFrom(c)).WithDetails(domainErr.Details))
	case shared.IsTransient(err):
		logger.RequestLogger(c, nil).Warn("Dependency unavailable", zap.Error(err))
		fail(c, dto.ErrCodeUnavailable, "A dependency is temporarily unavailable, retry later")
	default:
		logger.RequestLogger(c, nil).Error("Unhandled error", zap.Error(err))
		fail(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
