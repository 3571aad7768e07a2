package public

import (
	handlershared "github.com/optical-member/internal/http/handlers/shared"
	"github.com/optical-member/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func customerAuth(c *gin.Context) (service.AuthContext, bool) {
	return handlershared.CustomerAuthContext(c)
}
