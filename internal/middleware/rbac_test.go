package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

func performWithClaims(t *testing.T, claims *models.JWTClaims, params gin.Params, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	c.Request = req
	c.Params = params
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	RBAC(allowed...)(c)
	if !c.IsAborted() {
		c.Status(http.StatusOK)
	}
	return w
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	w := performWithClaims(t, &models.JWTClaims{UserID: "u1", Role: models.RoleFaculty}, nil, "ADMIN", "FACULTY")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	w := performWithClaims(t, nil, nil, "ADMIN")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACRejectsWrongRole(t *testing.T) {
	w := performWithClaims(t, &models.JWTClaims{UserID: "u1", Role: models.RoleCadet}, nil, "ADMIN")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACSelfMatchesCadetIDParam(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleCadet, CadetID: "cadet-7"}
	w := performWithClaims(t, claims, gin.Params{{Key: "cadetId", Value: "cadet-7"}}, "ADMIN", SelfScope)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRBACSelfRejectsOtherCadet(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleCadet, CadetID: "cadet-7"}
	w := performWithClaims(t, claims, gin.Params{{Key: "cadetId", Value: "cadet-9"}}, "ADMIN", SelfScope)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACSelfMatchesUserIDParam(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleCadet}
	w := performWithClaims(t, claims, gin.Params{{Key: "id", Value: "u1"}}, SelfScope)
	assert.Equal(t, http.StatusOK, w.Code)
}
