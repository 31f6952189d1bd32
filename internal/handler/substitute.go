// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/service"
	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/logger"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// SubstituteService 处理器依赖的服务接口
type SubstituteService interface {
	Assign(ctx context.Context, req service.AssignRequest) (*service.AssignResponse, error)
	Assignments(ctx context.Context) (model.AssignmentDocument, error)
	Reset(ctx context.Context) error
	Verify(ctx context.Context, absent []string) (*service.VerifyResponse, error)
}

// SubstituteHandler 代课分配处理器
type SubstituteHandler struct {
	svc SubstituteService
}

// NewSubstituteHandler 创建代课分配处理器
func NewSubstituteHandler(svc SubstituteService) *SubstituteHandler {
	return &SubstituteHandler{svc: svc}
}

// Register 注册路由
func (h *SubstituteHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/substitutes/assign", h.Assign)
	mux.HandleFunc("GET /api/v1/substitutes", h.List)
	mux.HandleFunc("POST /api/v1/substitutes/reset", h.Reset)
	mux.HandleFunc("GET /api/v1/substitutes/verify", h.Verify)
}

// Assign 为缺勤教师分配代课
// POST /api/v1/substitutes/assign
func (h *SubstituteHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req service.AssignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.Assign(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// List 返回当前分配文档
// GET /api/v1/substitutes
func (h *SubstituteHandler) List(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Assignments(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Reset 清空分配文档
// POST /api/v1/substitutes/reset
func (h *SubstituteHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, model.EmptyDocument())
}

// Verify 复查当前分配，absent 参数为逗号分隔的缺勤教师
// GET /api/v1/substitutes/verify?absent=Ali%20Khan,Sara%20Malik
func (h *SubstituteHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var absent []string
	if raw := r.URL.Query().Get("absent"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				absent = append(absent, name)
			}
		}
	}

	resp, err := h.svc.Verify(r.Context(), absent)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "请求格式错误")
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn().Err(err).Msg("写入响应失败")
	}
}

// respondError 返回错误响应，非 AppError 一律视为内部错误
func respondError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "内部错误")
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", string(appErr.Code)).Msg("请求处理失败")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}
