package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"atmosphere.io/timeline/internal/reducer"
	"atmosphere.io/timeline/internal/repository"
	"atmosphere.io/timeline/internal/testutil"
	"atmosphere.io/timeline/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestGinContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var req *http.Request
	if strings.TrimSpace(body) == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func newIngestHandlerForTest(t *testing.T) *IngestHandler {
	t.Helper()
	client := testutil.OpenEntPostgres(t, "ingest_handler")
	resources := repository.NewResourceStore()
	specs := repository.NewSpecStore()
	uc := usecase.NewIngestUseCase(client, resources, reducer.New(resources, specs))
	return NewIngestHandler(uc)
}

func TestIngestHandler_Handle_MalformedJSON(t *testing.T) {
	h := newIngestHandlerForTest(t)
	c, w := newTestGinContext(http.MethodPost, "/v1/event", "not json")
	c.Request.Header.Set("Content-Type", "application/json")

	h.Handle(c)

	require.NotEmpty(t, c.Errors)
	require.Equal(t, http.StatusOK, w.Code, "errors are surfaced via c.Error and translated by the ErrorHandler middleware, not written directly")
}

func TestIngestHandler_Handle_AppliesBatch(t *testing.T) {
	h := newIngestHandlerForTest(t)

	payload := `[{"generated":"2024-01-01T00:00:00","event_type":"compute.instance.create.end","traits":[` +
		`["resource_id",1,"vm-1"],["project_id",1,"project-1"],["instance_type",1,"m1.small"],` +
		`["state",1,"active"],["created_at",4,"2024-01-01T00:00:00"]]}]`

	c, w := newTestGinContext(http.MethodPost, "/v1/event", payload)

	h.Handle(c)

	require.Empty(t, c.Errors)
	require.Equal(t, http.StatusNoContent, w.Code)
}
