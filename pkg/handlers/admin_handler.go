package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// AdminHandler はメンテナンスモードの切り替えとヘルスチェックを扱います。
type AdminHandler struct {
	username    string
	password    string
	maintenance atomic.Bool
}

// NewAdminHandler は新しいAdminHandlerを生成します。
// password が空の場合、メンテナンスモードの切り替えは無効になります。
func NewAdminHandler(username, password string) *AdminHandler {
	return &AdminHandler{username: username, password: password}
}

// AdminCredentials は管理者認証のためのリクエストボディです。
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// StartMaintenance はメンテナンスモードを開始します。
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	log.Printf("🛠️ [admin] maintenance mode started")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Maintenance mode started"})
}

// StopMaintenance はメンテナンスモードを停止します。
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	log.Printf("🛠️ [admin] maintenance mode stopped")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Maintenance mode stopped"})
}

func (h *AdminHandler) authorize(c *gin.Context) bool {
	if h.password == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Admin credentials are not configured"})
		return false
	}

	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password are required"})
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.password)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
		return false
	}
	return true
}

// InMaintenance はメンテナンスモード中かどうかを返します。
func (h *AdminHandler) InMaintenance() bool {
	return h.maintenance.Load()
}

// GetHealthStatus は現在のサーバーの状態を返します。
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "isMaintenanceMode": h.InMaintenance()})
}

// HealthCheck は外部のヘルスチェッカー（例: ロードバランサー）からのリクエストに応答します。
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.InMaintenance() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "bi-decision-engine"})
}

// MaintenanceMiddleware はメンテナンス中のBI APIリクエストを503で拒否します。
func (h *AdminHandler) MaintenanceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.InMaintenance() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Server is in maintenance mode"})
			return
		}
		c.Next()
	}
}
