package helpers

import (
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/beego/beego/v2/server/web/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCtx(authorization string) *context.Context {
	req := httptest.NewRequest("GET", "/v1/postings/p1", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	ctx := context.NewContext()
	ctx.Reset(httptest.NewRecorder(), req)
	return ctx
}

func bearer(claims map[string]interface{}) string {
	payload, _ := json.Marshal(claims)
	return "Bearer eyJhbGciOiJub25lIn0." + base64.RawURLEncoding.EncodeToString(payload) + "."
}

func TestActorIdentity(t *testing.T) {
	ctx := newCtx(bearer(map[string]interface{}{"sub": "u-1", "roles": []string{"admin", "Worker"}}))
	id, role, err := ActorIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)
	assert.Equal(t, "worker", role)

	ctx = newCtx(bearer(map[string]interface{}{"user_id": float64(42), "realm_access": map[string]interface{}{"roles": []string{"client"}}}))
	id, role, err = ActorIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, "client", role)
}

func TestActorIdentityErrors(t *testing.T) {
	_, _, err := ActorIdentity(newCtx(""))
	assert.ErrorIs(t, err, ErrNoAuthHeader)

	_, _, err = ActorIdentity(newCtx("Basic abc"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = ActorIdentity(newCtx("Bearer a.%%%.c"))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = ActorIdentity(newCtx(bearer(map[string]interface{}{"roles": "client"})))
	assert.ErrorIs(t, err, ErrClaimNotFound)

	_, _, err = ActorIdentity(newCtx(bearer(map[string]interface{}{"sub": "u-1", "role": "admin"})))
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestRequireRole(t *testing.T) {
	ctx := newCtx(bearer(map[string]interface{}{"sub": "u-1", "role": "client, worker"}))
	assert.NoError(t, RequireRole(ctx, "worker"))
	assert.NoError(t, RequireRole(ctx))
	assert.Error(t, RequireRole(ctx, "admin"))
}

func TestParamID(t *testing.T) {
	ctx := newCtx("")
	ctx.Input.SetParam(":id", " p-1 ")
	id, err := ParamID(ctx, ":id")
	require.NoError(t, err)
	assert.Equal(t, "p-1", id)

	ctx.Input.SetParam(":id", "a b")
	_, err = ParamID(ctx, ":id")
	assert.Error(t, err)

	_, err = ParamID(ctx, ":proposalId")
	assert.Error(t, err)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := Paginate(items, 2, 2)
	assert.Equal(t, []int{3, 4}, page.Items)
	assert.Equal(t, int64(5), page.Total)

	assert.Empty(t, Paginate(items, 9, 2).Items)

	p, s := ParsePageSize("x", "500")
	assert.Equal(t, 1, p)
	assert.Equal(t, 100, s)
}
