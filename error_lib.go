package blogboot

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ApiError struct {
	Status    int    `json:"-"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (e ApiError) New(messages ...string) ApiError {
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := fmt.Sprintf(e.Message, args...)
	return ApiError{
		Status:    e.Status,
		ErrorCode: e.ErrorCode,
		Message:   message,
	}
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// Is matches on ErrorCode so formatted copies made with New still satisfy
// errors.Is against the template.
func (e ApiError) Is(target error) bool {
	var t ApiError
	if !errors.As(target, &t) {
		return false
	}
	return t.ErrorCode == e.ErrorCode
}

var (
	ErrValidationFailed   = ApiError{Status: http.StatusBadRequest, ErrorCode: "VALIDATION_FAILED", Message: "%s"}
	ErrCategoryNotFound   = ApiError{Status: http.StatusBadRequest, ErrorCode: "CATEGORY_NOT_FOUND", Message: "Category '%s' not found"}
	ErrDuplicateKey       = ApiError{Status: http.StatusBadRequest, ErrorCode: "DUPLICATE_KEY", Message: "Duplicate field value entered"}
	ErrBadRequest         = ApiError{Status: http.StatusBadRequest, ErrorCode: "BAD_REQUEST", Message: "%s"}
	ErrEmptySearchQuery   = ApiError{Status: http.StatusBadRequest, ErrorCode: "BAD_REQUEST", Message: "Please provide a search query"}
	ErrUserExists         = ApiError{Status: http.StatusBadRequest, ErrorCode: "USER_EXISTS", Message: "User already exists"}
	ErrUploadsDisabled    = ApiError{Status: http.StatusBadRequest, ErrorCode: "UPLOADS_DISABLED", Message: "File uploads are not configured"}
	ErrUnauthorized       = ApiError{Status: http.StatusUnauthorized, ErrorCode: "UNAUTHORIZED", Message: "Not authorized, %s"}
	ErrInvalidCredentials = ApiError{Status: http.StatusUnauthorized, ErrorCode: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
	ErrForbidden          = ApiError{Status: http.StatusForbidden, ErrorCode: "FORBIDDEN", Message: "Not authorized to %s this post"}
	ErrNotFound           = ApiError{Status: http.StatusNotFound, ErrorCode: "NOT_FOUND", Message: "%s not found"}
	ErrPostNotFound       = ApiError{Status: http.StatusNotFound, ErrorCode: "NOT_FOUND", Message: "Post not found"}
	ErrTooManyRequests    = ApiError{Status: http.StatusTooManyRequests, ErrorCode: "TOO_MANY_REQUESTS", Message: "Rate limit exceeded"}
)

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Stack     string `json:"stack,omitempty"`
}

// ErrorReporter translates errors into HTTP responses. Unknown errors are
// logged and reported as 500; their text only leaks outside production.
type ErrorReporter struct {
	logger     *zap.Logger
	production bool
}

func NewErrorReporter(logger *zap.Logger, production bool) *ErrorReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorReporter{logger: logger, production: production}
}

func (r *ErrorReporter) Send(c *gin.Context, err error) {
	if mongo.IsDuplicateKeyError(err) {
		err = ErrDuplicateKey
	}

	var customErr ApiError
	if errors.As(err, &customErr) {
		status := customErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{
			Error:     customErr.Message,
			ErrorCode: customErr.ErrorCode,
		})
		return
	}

	r.logger.Error("unhandled error",
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
	resp := ErrorResponse{
		Error:     "Server Error",
		ErrorCode: "INTERNAL_SERVER_ERROR",
	}
	if !r.production {
		resp.Error = err.Error()
		resp.Stack = string(debug.Stack())
	}
	c.JSON(http.StatusInternalServerError, resp)
}

var defaultReporter = NewErrorReporter(nil, true)

// SendError reports err with the production reporter and a no-op logger.
// Handlers registered through a Server use the server's reporter instead.
func SendError(c *gin.Context, err error) {
	defaultReporter.Send(c, err)
}
