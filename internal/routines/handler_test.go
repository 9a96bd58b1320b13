package routines_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2beens/gymtracker/internal/routines"
	"github.com/2beens/gymtracker/internal/rowstore"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *MockcatalogService) {
	ctrl := gomock.NewController(t)
	catalogMock := NewMockcatalogService(ctrl)
	r := mux.NewRouter()
	routines.NewHandler(catalogMock).SetupRoutes(r)
	return r, catalogMock
}

func TestHandler_ListRoutines(t *testing.T) {
	r, catalogMock := newTestRouter(t)
	catalogMock.EXPECT().ListRoutines(gomock.Any()).Return(routines.DefaultRoutines, routines.SourceDefault, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/routines", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp routines.ListRoutinesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, routines.SourceDefault, resp.Source)
	assert.Len(t, resp.Routines, len(routines.DefaultRoutines))
}

func TestHandler_ListRoutines_ConnectionFailure(t *testing.T) {
	r, catalogMock := newTestRouter(t)
	catalogMock.EXPECT().ListRoutines(gomock.Any()).Return(nil, "", rowstore.ErrConnection)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/routines", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHandler_AddRoutineExercise(t *testing.T) {
	r, catalogMock := newTestRouter(t)
	catalogMock.EXPECT().AddRoutineExercise(gomock.Any(), "Día 7: Cardio", "Remo").Return(nil)

	body := `{"routine":"Día 7: Cardio","exercise":"Remo"}`
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/routines", strings.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/routines", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_ListExercises(t *testing.T) {
	r, catalogMock := newTestRouter(t)
	catalogMock.EXPECT().ListExercises(gomock.Any()).Return([]routines.Exercise{}, nil)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exercises", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp routines.ListExercisesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.NoData)
	assert.Empty(t, resp.Exercises)
}

func TestHandler_AddExercise_Invalid(t *testing.T) {
	r, catalogMock := newTestRouter(t)
	catalogMock.EXPECT().AddExercise(gomock.Any(), "", "x").Return(routines.ErrInvalidInput)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/exercises", strings.NewReader(`{"name":"","imageUrl":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
