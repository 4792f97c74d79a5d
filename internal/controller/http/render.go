package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/middleware"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
	apperrors "github.com/jrjohn/tandem-cloud-go/pkg/errors"
)

const msgNotAuthenticated = "not authenticated"

func init() {
	// Report binding failures with the JSON field names clients send.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	}
}

// renderError writes err as {"error": message} with its AppError status.
// Foreign errors and 5xx causes are logged and hidden from the client.
func renderError(ctx *gin.Context, logger *zap.Logger, err error) {
	status := apperrors.GetStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", middleware.GetRequestID(ctx)),
			zap.Error(err),
		)
	}
	_ = ctx.Error(err)
	ctx.JSON(status, response.NewError(apperrors.PublicMessage(err)))
}

// renderBindError writes a 400 for a body or query that failed to bind.
func renderBindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, response.NewError(bindMessage(err)))
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return fmt.Sprintf("%s is required", fe.Field())
		}
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
	return "invalid request body"
}

// caller returns the authenticated identity, writing a 401 when absent.
func caller(ctx *gin.Context) (security.Identity, bool) {
	identity := security.CurrentIdentity(ctx)
	if identity == nil || identity.ID == "" {
		ctx.JSON(http.StatusUnauthorized, response.NewError(msgNotAuthenticated))
		return security.Identity{}, false
	}
	return *identity, true
}
