package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os/exec"

	"github.com/gin-gonic/gin"
)

// DeployWebhook 接收代码托管方的推送回调并触发部署脚本。
// 配置了 WEBHOOK_SECRET 且请求带签名时校验 HMAC-SHA256；
// 只有 main 分支的推送会触发部署，脚本异步执行。
func (a *API) DeployWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read payload")
		return
	}

	signature := c.GetHeader("X-Hub-Signature-256")
	if a.cfg.WebhookSecret != "" && signature != "" {
		mac := hmac.New(sha256.New, []byte(a.cfg.WebhookSecret))
		mac.Write(body)
		expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(signature), []byte(expected)) {
			respondError(c, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	var payload struct {
		Ref string `json:"ref"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(c, http.StatusBadRequest, "invalid payload")
		return
	}

	if payload.Ref != "refs/heads/main" {
		c.JSON(http.StatusOK, gin.H{"status": "skipped", "ref": payload.Ref})
		return
	}

	cmd := exec.Command("/bin/bash", a.cfg.DeployScript)
	if err := cmd.Start(); err != nil {
		log.Printf("failed to start deploy script: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to start deploy")
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("deploy script exited with error: %v", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{"status": "deploying"})
}
