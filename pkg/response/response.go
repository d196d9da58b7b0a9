package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every API endpoint returns. Code 0 means
// success; error responses reuse the HTTP status as the code.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AppError is the error type services return so handlers can map domain
// failures (bad dates, wrong handler, closed sub-projects) onto HTTP
// statuses without inspecting message text.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func newError(status int, msg string) *AppError {
	return &AppError{HTTPStatus: status, Code: status, Message: msg}
}

// NewBadRequest flags invalid input, such as an event dated before the
// sub-project start.
func NewBadRequest(msg string) *AppError {
	return newError(http.StatusBadRequest, msg)
}

func NewUnauthorized(msg string) *AppError {
	return newError(http.StatusUnauthorized, msg)
}

// NewForbidden flags a caller acting outside their role, such as a
// non-handler recording a work log.
func NewForbidden(msg string) *AppError {
	return newError(http.StatusForbidden, msg)
}

func NewNotFound(msg string) *AppError {
	return newError(http.StatusNotFound, msg)
}

// NewConflict flags an operation that is valid in form but not in the
// record's current state, such as editing a closed project.
func NewConflict(msg string) *AppError {
	return newError(http.StatusConflict, msg)
}

func NewServerError(msg string) *AppError {
	return newError(http.StatusInternalServerError, msg)
}

// Success sends 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

// Created sends 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Error maps an *AppError onto its HTTP status. Anything else is an
// unexpected failure and reports as 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{Code: appErr.Code, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: err.Error()})
}

// Shorthands for handlers that fail before reaching a service.

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: 400, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 401, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: 403, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: 404, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: msg})
}
