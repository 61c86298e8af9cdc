package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"bi-decision-engine/pkg/services"

	"github.com/gin-gonic/gin"
)

// respondError エラーを失敗レスポンスに変換（入力エラーは400、それ以外は500）
func respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInputShape) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	log.Printf("❌ [%s %s] %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
}

// respondBindError リクエストボディのバインド失敗を400で返す
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "invalid request body: " + err.Error(),
	})
}

// parseCount ?count= を解釈（未指定は0 = 既定件数）
func parseCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: count must be a positive integer", services.ErrInputShape)
	}
	return n, nil
}
