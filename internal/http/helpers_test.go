package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/mrlokans/readinglists/internal/readinglists"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	id, ok := parseIDParam(c, "id")

	assert.False(t, ok)
	assert.Equal(t, uint(0), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid id")
}

func TestParseIDParam_Negative(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "-1"}}

	id, ok := parseIDParam(c, "id")

	assert.False(t, ok)
	assert.Equal(t, uint(0), id)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondListError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{"name collision", &readinglists.Error{Kind: readinglists.KindListExistsWithTheSameName}, http.StatusConflict, `"code":"list_exists_with_the_same_name"`},
		{"entry limit", &readinglists.Error{Kind: readinglists.KindEntryLimitReached, Name: "Trips", Count: 1, Limit: 2}, http.StatusUnprocessableEntity, "limit of 2 articles"},
		{"list limit", &readinglists.Error{Kind: readinglists.KindListLimitReached, Limit: 1}, http.StatusUnprocessableEntity, `"code":"list_limit_reached"`},
		{"combined limits", &readinglists.Error{Kind: readinglists.KindListEntryLimitsReached}, http.StatusUnprocessableEntity, `"code":"list_entry_limits_reached"`},
		{"name not found", &readinglists.Error{Kind: readinglists.KindListWithProvidedNameNotFound, Name: "Trips"}, http.StatusNotFound, "Trips was not found"},
		{"wrapped kind", fmt.Errorf("create: %w", &readinglists.Error{Kind: readinglists.KindListLimitReached}), http.StatusUnprocessableEntity, "list_limit_reached"},
		{"store failure", &readinglists.Error{Kind: readinglists.KindUnableToCreateList, Err: errors.New("disk")}, http.StatusInternalServerError, `"code":"unable_to_create_list"`},
		{"missing record", gorm.ErrRecordNotFound, http.StatusNotFound, "reading list not found"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondListError(c, tt.err, "test")

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.NotContains(t, w.Body.String(), "disk")
		})
	}
}

func TestRespondAccepted(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondAccepted(c, "sync queued", gin.H{"task_id": "abc"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"sync queued"`)
	assert.Contains(t, w.Body.String(), `"task_id":"abc"`)
}
