package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/habbits/internal/notion"
)

// NotionProxy 把 /api/notion/*path 原样转发到远端协议端点。
// 凭证和协议版本头由 notion.Client 注入，前端永远接触不到机密；
// 远端的响应体和状态码不加解释地转交回去。
func (a *API) NotionProxy(c *gin.Context) {
	path := c.Param("path")

	var body []byte
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read request body")
			return
		}
		body = raw
	}

	raw, status, err := a.client.Request(c.Request.Context(), c.Request.Method, path, body)
	if err != nil {
		var remote *notion.RemoteError
		if errors.As(err, &remote) {
			// 远端错误 payload 原样回传
			c.Data(remote.Status, "application/json", remote.Body)
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
		return
	}

	c.Data(status, "application/json", raw)
}
