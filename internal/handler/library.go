package handler

import (
	"net/http"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/config"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/constraints"
)

// RegisterLibrary 注册约束库与 API 索引路由
func RegisterLibrary(mux *http.ServeMux, engine config.EngineConfig) {
	// 约束库 API - 返回当前生效的全部规则及参数
	mux.HandleFunc("GET /api/v1/constraints/library", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: constraints.GetLibrary(engine)})
	})

	// API 根路由
	mux.HandleFunc("GET /api/v1/{$}", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "代课分配引擎 API v1",
			"endpoints": map[string]string{
				"assign":      "POST /api/v1/substitutes/assign",
				"assignments": "GET /api/v1/substitutes",
				"reset":       "POST /api/v1/substitutes/reset",
				"verify":      "GET /api/v1/substitutes/verify",
				"library":     "GET /api/v1/constraints/library",
			},
		})
	})
}
