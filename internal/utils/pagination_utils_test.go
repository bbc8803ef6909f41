package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paginationContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return ctx
}

func TestParsePaginationParams(t *testing.T) {
	testCases := []struct {
		name   string
		query  string
		offset int
		limit  int
	}{
		{"Defaults", "", 0, 10},
		{"Explicit", "offset=20&limit=5", 20, 5},
		{"NegativeValues", "offset=-3&limit=-1", 0, 10},
		{"LimitCapped", "limit=500", 0, 50},
		{"Garbage", "offset=abc&limit=xyz", 0, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := paginationContext(t, tc.query)
			offset, limit := ParsePaginationParams(ctx)
			assert.Equal(t, tc.offset, offset)
			assert.Equal(t, tc.limit, limit)
		})
	}
}
