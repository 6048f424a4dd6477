package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// apiError pairs an errcode value with a user-facing message so proxyutil
// can surface both in the wire envelope.
type apiError struct {
	code    uint32
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func (e *apiError) Code() uint32 {
	return e.code
}

// Success writes the standard {code, message, data} envelope with the
// payload attached.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes the envelope for a failed request. The HTTP status stays
// 200; clients switch on the embedded code.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, &apiError{code: uint32(code), message: message})
}
