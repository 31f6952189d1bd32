package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackDevilOC/managmetn-android-sub000/internal/config"
	"github.com/BlackDevilOC/managmetn-android-sub000/internal/service"
	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
)

type fakeService struct {
	assignReq  service.AssignRequest
	assignErr  error
	verifyArgs []string
	resetErr   error
	doc        model.AssignmentDocument
}

func (f *fakeService) Assign(_ context.Context, req service.AssignRequest) (*service.AssignResponse, error) {
	f.assignReq = req
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	return &service.AssignResponse{
		Date: "2025-03-03",
		Day:  model.Monday,
		Assignments: []model.SubstituteAssignment{
			{OriginalTeacher: "Ali Khan", Period: 1, ClassName: "9A", Substitute: "Sara Malik", SubstitutePhone: "0302"},
		},
		Warnings: []string{},
	}, nil
}

func (f *fakeService) Assignments(context.Context) (model.AssignmentDocument, error) {
	return f.doc, nil
}

func (f *fakeService) Reset(context.Context) error {
	return f.resetErr
}

func (f *fakeService) Verify(_ context.Context, absent []string) (*service.VerifyResponse, error) {
	f.verifyArgs = absent
	return &service.VerifyResponse{Pass: true, Reports: []model.VerificationReport{}}, nil
}

func newServer(svc SubstituteService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSubstituteHandler(svc).Register(mux)
	return mux
}

func TestAssign(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	body := `{"date": "2025-03-03", "teachers": ["Ali Khan"]}`
	newServer(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/substitutes/assign", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"Ali Khan"}, svc.assignReq.Teachers)

	var resp service.AssignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Assignments, 1)
	assert.Equal(t, "Sara Malik", resp.Assignments[0].Substitute)
}

func TestAssign_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   apperrors.Code
	}{
		{"请求体无效", `{"teachers":`, nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"名单为空", `{"teachers": []}`, apperrors.ErrEmptyAbsentList, http.StatusBadRequest, apperrors.CodeAbsentListInvalid},
		{"输入缺失", `{"teachers": ["Ali"]}`, apperrors.InputMissing("data/total_teacher.json"), http.StatusUnprocessableEntity, apperrors.CodeInputMissing},
		{"运行中", `{"teachers": ["Ali"]}`, apperrors.ErrRunInProgress, http.StatusConflict, apperrors.CodeRunInProgress},
		{"未知错误", `{"teachers": ["Ali"]}`, errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/substitutes/assign", strings.NewReader(tt.body))
			newServer(&fakeService{assignErr: tt.err}).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tt.code), body["code"])
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestList(t *testing.T) {
	doc := model.EmptyDocument()
	doc.Date = "2025-03-03"
	rec := httptest.NewRecorder()
	newServer(&fakeService{doc: doc}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/substitutes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2025-03-03","assignments":[],"warnings":[]}`, rec.Body.String())
}

func TestReset(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(&fakeService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/substitutes/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"assignments":[],"warnings":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	newServer(&fakeService{resetErr: apperrors.ErrRunInProgress}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/substitutes/reset", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestVerify(t *testing.T) {
	svc := &fakeService{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/substitutes/verify?absent=Ali%20Khan,%20,Sara%20Malik", nil)
	newServer(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Ali Khan", "Sara Malik"}, svc.verifyArgs)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newServer(&fakeService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/substitutes/assign", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLibrary(t *testing.T) {
	mux := http.NewServeMux()
	RegisterLibrary(mux, config.Default().Engine)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/constraints/library", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Library []struct {
			Name string `json:"name"`
		} `json:"library"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Library)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/substitutes/assign")
}
