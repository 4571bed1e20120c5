// Package response is the JSON envelope every HTTP handler writes:
// {"code": <http status>, "data": <payload>, "msg": <human-readable note>}.
// Clients key off code, never off HTTP transport details.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Envelope struct {
	Code int         `json:"code"`
	Data interface{} `json:"data"`
	Msg  string      `json:"msg"`
}

func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, data, "")
}

func SuccessWithMsg(c *gin.Context, data interface{}, msg string) {
	write(c, http.StatusOK, data, msg)
}

func Error(c *gin.Context, status int, msg string) {
	write(c, status, nil, msg)
}

// write keeps data non-null on the wire so clients can always index into it.
func write(c *gin.Context, status int, data interface{}, msg string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Envelope{
		Code: status,
		Data: data,
		Msg:  msg,
	})
}
