package admin

import (
	handlershared "github.com/optical-member/internal/http/handlers/shared"
	"github.com/optical-member/internal/http/response"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var staffManageErrorRules = []handlershared.MappedError{
	{Target: service.ErrForbidden, Code: response.CodeForbidden, Key: "error.forbidden"},
	{Target: service.ErrStaffNotFound, Code: response.CodeNotFound, Key: "error.staff_not_found"},
	{Target: service.ErrStaffNotApproved, Code: response.CodeStaffNotApproved, Key: "error.staff_not_approved"},
	{Target: service.ErrStaffAlreadyActive, Code: response.CodeConflict, Key: "error.staff_already_approved"},
	{Target: service.ErrInvalidInput, Code: response.CodeBadRequest, Key: "error.bad_request"},
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondWithMappedError(c *gin.Context, err error, rules []handlershared.MappedError, fallbackCode int, fallbackKey string) {
	handlershared.RespondMappedError(c, err, rules, fallbackCode, fallbackKey)
}
