package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fairwaymarket/escrow-processor/internal/domain/usecase/escrow"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newHeaderContext(t *testing.T, actorID, actorRole string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/transactions/txn-1/ship", nil)
	c.Request.Header.Set("X-Actor-ID", actorID)
	c.Request.Header.Set("X-Actor-Role", actorRole)
	return c
}

func TestActorFromRequest(t *testing.T) {
	t.Run("reads the gateway identity headers", func(t *testing.T) {
		actor := actorFromRequest(newHeaderContext(t, "seller-1", "seller"))

		assert.Equal(t, "seller-1", actor.ID)
		assert.Equal(t, escrow.RoleSeller, actor.Role)
	})

	t.Run("system role from the wire is stripped", func(t *testing.T) {
		actor := actorFromRequest(newHeaderContext(t, "mallory", "system"))

		assert.Equal(t, "mallory", actor.ID)
		assert.NotEqual(t, escrow.RoleSystem, actor.Role)
		assert.Empty(t, string(actor.Role))
	})
}
