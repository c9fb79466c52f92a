package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope every JSON endpoint returns
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created writes a 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// Error writes an error response. Codes are HTTP status times 100 plus a
// detail number, e.g. 40400.
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData writes an error response that still carries a payload,
// such as the partial result of an interrupted run.
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	status := code / 100
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, Response{Code: code, Message: message, Data: data})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func TooManyRequests(c *gin.Context, message string) {
	Error(c, 42900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// Unavailable writes a 503 carrying data, which may be nil
func Unavailable(c *gin.Context, message string, data interface{}) {
	ErrorWithData(c, 50300, message, data)
}
