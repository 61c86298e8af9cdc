package handler

import (
	"log"
	"net/http"
	"sync"

	config "bi-decision-engine/configs"
	"bi-decision-engine/pkg/app"

	"github.com/gin-gonic/gin"
)

var (
	engine  *gin.Engine
	initErr error
	once    sync.Once
)

// setupApp はGinアプリケーションを初期化します。
// サーバーレス環境では、リクエストごとに初期化が走らないようsync.Onceで一度だけ実行します。
func setupApp() (*gin.Engine, error) {
	once.Do(func() {
		// 環境変数はホスティング側の設定から読み込まれるため、ここではgodotenvを呼び出しません。
		cfg := config.LoadConfig()
		gin.SetMode(gin.ReleaseMode)

		application, err := app.New(cfg)
		if err != nil {
			initErr = err
			log.Printf("❌ [setupApp] initialization failed: %v", err)
			return
		}
		engine = application.Router()
		log.Printf("🟢 [setupApp] Gin application initialized")
	})
	return engine, initErr
}

// Handler はサーバーレス関数のエントリーポイントです。
func Handler(w http.ResponseWriter, r *http.Request) {
	router, err := setupApp()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"service is not configured"}`))
		return
	}
	router.ServeHTTP(w, r)
}
