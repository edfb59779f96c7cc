package pagination_test

import (
	"net/http/httptest"
	"testing"

	"storehub/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name       string
		page       int
		limit      int
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults applied", 0, 0, 1, 20, 0},
		{"negative page", -3, 10, 1, 10, 0},
		{"limit clamped to max", 2, 500, 2, 100, 100},
		{"regular values", 3, 25, 3, 25, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := pagination.Normalize(tc.page, tc.limit)

			assert.Equal(t, tc.wantPage, params.Page)
			assert.Equal(t, tc.wantLimit, params.Limit)
			assert.Equal(t, tc.wantOffset, params.Offset)
		})
	}
}

func TestParse_ReadsQueryParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/orders?page=2&limit=50", nil)

	params := pagination.Parse(c)

	assert.Equal(t, 2, params.Page)
	assert.Equal(t, 50, params.Limit)
	assert.Equal(t, 50, params.Offset)
}

func TestParse_IgnoresGarbage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/orders?page=abc&limit=-1", nil)

	params := pagination.Parse(c)

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.Limit)
}
