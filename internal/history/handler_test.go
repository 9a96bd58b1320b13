package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/gymtracker/internal/auth"
	"github.com/2beens/gymtracker/internal/history"
	"github.com/2beens/gymtracker/internal/rowstore"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func ptr[T any](v T) *T {
	return &v
}

func testHistory() *history.History {
	d1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	return &history.History{
		Username: "ana",
		Entries: []history.Entry{
			{Date: &d2, RawDate: "2024-05-02", Exercise: "Sentadilla", Set: "1", Weight: ptr(85.0), Reps: "6"},
			{Date: &d1, RawDate: "2024-05-01", Exercise: "Sentadilla", Set: "1", Weight: ptr(80.0), Reps: "8"},
			{Date: &d1, RawDate: "2024-05-01", Exercise: "Femoral", Set: "1", Weight: nil, Reps: "12"},
		},
	}
}

func newRouter(t *testing.T) (*mux.Router, *MockhistoryService) {
	ctrl := gomock.NewController(t)
	serviceMock := NewMockhistoryService(ctrl)
	r := mux.NewRouter()
	history.NewHandler(serviceMock).SetupRoutes(r)
	return r, serviceMock
}

func loggedRequest(path string) *http.Request {
	req := httptest.NewRequest("GET", path, nil)
	return req.WithContext(auth.ContextWithSession(req.Context(), &auth.LoginSession{
		Token:    "tok",
		Username: "ana",
	}))
}

func TestHandler_Overview(t *testing.T) {
	r, serviceMock := newRouter(t)
	serviceMock.EXPECT().LoadHistory(gomock.Any(), "ana").Return(testHistory(), nil).Times(2)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history?recent=2"))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp history.OverviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ana", resp.Username)
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Recent, 2)
	assert.Equal(t, []string{"Sentadilla", "Femoral"}, resp.Exercises)
	assert.False(t, resp.NoData)
	assert.Nil(t, resp.Recent[1].Weight)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Recent, 3)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history?recent=-1"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Exercise(t *testing.T) {
	r, serviceMock := newRouter(t)
	serviceMock.EXPECT().LoadHistory(gomock.Any(), "ana").Return(testHistory(), nil).Times(2)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history/exercise/Sentadilla"))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp history.ExerciseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Series, 2)
	assert.Equal(t, "2024-05-01", resp.Series[0].RawDate)
	require.NotNil(t, resp.MaxWeight)
	assert.Equal(t, 85.0, *resp.MaxWeight)
	assert.False(t, resp.NoData)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history/exercise/Femoral"))
	require.Equal(t, http.StatusOK, rr.Code)
	resp = history.ExerciseResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Nil(t, resp.MaxWeight)
	assert.Len(t, resp.Series, 1)
}

func TestHandler_Errors(t *testing.T) {
	r, serviceMock := newRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	serviceMock.EXPECT().
		LoadHistory(gomock.Any(), "ana").
		Return(nil, rowstore.ErrConnection)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history"))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	serviceMock.EXPECT().
		LoadHistory(gomock.Any(), "ana").
		Return(nil, errors.New("boom"))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history/exercise/Sentadilla"))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	serviceMock.EXPECT().
		LoadHistory(gomock.Any(), "ana").
		Return(&history.History{Username: "ana", Entries: []history.Entry{}, NoData: true}, nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history"))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp history.OverviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.NoData)
}

func TestHandler_NonFiniteWeightsKeepViewUp(t *testing.T) {
	ctx := context.Background()
	store := rowstore.NewMemoryStore()
	require.NoError(t, store.EnsureTable(ctx, "Hoja 1", rowstore.LogHeader))
	require.NoError(t, store.AppendRows(ctx, "Hoja 1", []rowstore.Row{
		{"2024-05-01", "ana", "Día 3: Pierna", "Sentadilla", "1", "NaN", "8"},
		{"2024-05-02", "ana", "Día 3: Pierna", "Sentadilla", "2", "100", "6"},
		{"2024-05-03", "ana", "Día 3: Pierna", "Sentadilla", "3", "Infinity", "5"},
	}))

	r := mux.NewRouter()
	history.NewHandler(history.NewService(store, "Hoja 1")).SetupRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history"))
	require.Equal(t, http.StatusOK, rr.Code)
	var overview history.OverviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &overview))
	assert.Equal(t, 3, overview.Total)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loggedRequest("/history/exercise/Sentadilla"))
	require.Equal(t, http.StatusOK, rr.Code)
	var exResp history.ExerciseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &exResp))
	require.Len(t, exResp.Series, 3)
	assert.Nil(t, exResp.Series[0].Weight)
	require.NotNil(t, exResp.MaxWeight)
	assert.Equal(t, 100.0, *exResp.MaxWeight)
}
