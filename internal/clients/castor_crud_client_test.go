package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udistrital/marketplace_mid/helpers"
	"github.com/udistrital/marketplace_mid/models"
	rootservices "github.com/udistrital/marketplace_mid/services"
)

type fakeCrud struct {
	mu       sync.Mutex
	postings map[string]map[string]interface{}
	queries  []string
	auth     []string
}

func (f *fakeCrud) writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"Success": true,
		"Status":  "200",
		"Message": "ok",
		"Data":    data,
	})
}

func (f *fakeCrud) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	resource := parts[0]
	switch {
	case resource == "posting" && len(parts) == 2 && r.Method == http.MethodGet:
		rec, ok := f.postings[parts[1]]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		f.writeData(w, http.StatusOK, rec)
	case resource == "posting" && len(parts) == 2 && r.Method == http.MethodPut:
		rec, ok := f.postings[parts[1]]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("If-Match") != jsonNumber(rec["revision"]) {
			http.Error(w, "revision mismatch", http.StatusPreconditionFailed)
			return
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["revision"] = rec["revision"].(float64) + 1
		f.postings[parts[1]] = body
		f.writeData(w, http.StatusOK, body)
	case resource == "proposal" && r.Method == http.MethodPost:
		http.Error(w, `{"message":"duplicate key value (posting_id, worker_id)"}`, http.StatusConflict)
	case resource == "deliverable" && r.Method == http.MethodGet:
		f.queries = append(f.queries, r.URL.RawQuery)
		if r.URL.Query().Get("query") == "PostingId:vacio" {
			http.Error(w, "no rows", http.StatusNotFound)
			return
		}
		f.writeData(w, http.StatusOK, []map[string]interface{}{{"id": "d7", "posting_id": "p1", "version": 7, "status": "UNDER-REVIEW"}})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusInternalServerError)
	}
}

func jsonNumber(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func newCastorFixture(t *testing.T) (*CastorCRUDClient, *fakeCrud) {
	t.Helper()
	fake := &fakeCrud{postings: map[string]map[string]interface{}{
		"p1": {"id": "p1", "client_id": "c1", "title": "Landing", "status": "under-review", "revision": float64(3)},
	}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	client := NewCastorCRUD(rootservices.Config{
		CastorCRUDBaseURL: srv.URL,
		OASBearerToken:    "secreto",
		RequestTimeout:    2 * time.Second,
	})
	return client, fake
}

func TestCastorGetPostingNormalizesLegacyStatus(t *testing.T) {
	client, fake := newCastorFixture(t)

	p, err := client.GetPosting(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostingUnderReview, p.Status)
	assert.Equal(t, int64(3), p.Revision)
	assert.Equal(t, "Bearer secreto", fake.auth[0])

	_, err = client.GetPosting(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCastorConditionalUpdate(t *testing.T) {
	client, _ := newCastorFixture(t)
	ctx := context.Background()

	p, err := client.GetPosting(ctx, "p1")
	require.NoError(t, err)
	p.Status = models.PostingCompleted

	saved, err := client.UpdatePosting(ctx, p, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), saved.Revision)
	assert.Equal(t, models.PostingCompleted, saved.Status)

	_, err = client.UpdatePosting(ctx, p, 3)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCastorDuplicateProposal(t *testing.T) {
	client, _ := newCastorFixture(t)
	_, err := client.CreateProposal(context.Background(), &models.Proposal{Id: "a", PostingId: "p1", WorkerId: "w1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCastorMaxDeliverableVersion(t *testing.T) {
	client, fake := newCastorFixture(t)
	ctx := context.Background()

	latest, found, err := client.MaxDeliverableVersion(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, latest)
	assert.Contains(t, fake.queries[0], "order=desc")
	assert.Contains(t, fake.queries[0], "sortby=Version")
	assert.Contains(t, fake.queries[0], "limit=1")

	_, found, err = client.MaxDeliverableVersion(ctx, "vacio")
	require.NoError(t, err)
	assert.False(t, found)

	list, err := client.ListDeliverables(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.DeliverableUnderReview, list[0].Status)
}

func TestBuildCrudFilters(t *testing.T) {
	values := buildCrudFilters(map[string]string{
		"WorkerId":  "w1",
		"PostingId": "p1",
		"Status":    "",
		"sortby":    "CreatedAt",
	})
	assert.Equal(t, "PostingId:p1,WorkerId:w1", values.Get("query"))
	assert.Equal(t, "0", values.Get("limit"))
	assert.Equal(t, "CreatedAt", values.Get("sortby"))
}

func TestCastorWritesAreNotRetried(t *testing.T) {
	helpers.SetDefaultRetryCount(2)
	helpers.SetRetryBackoff(1)
	t.Cleanup(func() {
		helpers.SetDefaultRetryCount(0)
		helpers.SetRetryBackoff(300)
	})

	var puts, gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			atomic.AddInt32(&puts, 1)
			// El CRUD aplica la escritura pero responde después del timeout del cliente.
			time.Sleep(150 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			if atomic.AddInt32(&gets, 1) == 1 {
				http.Error(w, "reiniciando", http.StatusServiceUnavailable)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"Success": true, "Data": map[string]interface{}{"id": "p1", "status": "open", "revision": 1}})
		}
	}))
	t.Cleanup(srv.Close)
	client := NewCastorCRUD(rootservices.Config{CastorCRUDBaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond})

	_, err := client.UpdatePosting(context.Background(), &models.Posting{Id: "p1", Status: models.PostingInProgress}, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 1, atomic.LoadInt32(&puts))

	p, err := client.GetPosting(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PostingOpen, p.Status)
	assert.EqualValues(t, 2, atomic.LoadInt32(&gets))
}
