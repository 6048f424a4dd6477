package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/telemetra/fleetquery/internal/pkg/errcode"
	appErr "github.com/telemetra/fleetquery/internal/pkg/errors"
	"github.com/telemetra/fleetquery/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrTruncatedGeneration):
		response.Error(c, errcode.ErrTruncatedGeneration, "generated query was cut off, try a simpler question")
	case errors.Is(err, appErr.ErrMalformedGeneration):
		response.Error(c, errcode.ErrMalformedGeneration, "model produced an unreadable answer, please retry")
	case errors.Is(err, appErr.ErrUnsafeQuery):
		response.Error(c, errcode.ErrUnsafeQuery, err.Error())
	case errors.Is(err, appErr.ErrUnsupportedParameter):
		response.Error(c, errcode.ErrUnsupportedParameter, err.Error())
	case errors.Is(err, appErr.ErrExecution):
		response.Error(c, errcode.ErrExecution, "query failed to execute")
	case errors.Is(err, appErr.ErrGenerationUnavailable), errors.Is(err, appErr.ErrEmbeddingService):
		response.Error(c, errcode.ErrAIUnavailable, "ai service unavailable, please retry later")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
