package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/marketplace-bot/internal/logger"
	"github.com/ignatzorin/marketplace-bot/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: AppError переводится
// в статус и сообщение, всё остальное маскируется как внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		logger.Component("http").WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("Request error")

		statusCode := http.StatusInternalServerError
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			statusCode = appErr.HTTPStatus
		}

		c.JSON(statusCode, gin.H{"error": apperror.UserMessage(err)})
	}
}
