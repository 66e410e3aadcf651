package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sahil-darj/Rewear/internal/market"
	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/session"
	"github.com/sahil-darj/Rewear/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	r   *gin.Engine
	svc *market.Service
}

func setupRouterWithDB(t *testing.T, autoApprove bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// Use a per-test in-memory database to avoid cross-test interference
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := store.InitDB(dsn)
	require.NoError(t, err)
	rec := store.NewGormRecords(db)
	t.Cleanup(func() { _ = rec.Close() })

	svc := market.NewService(rec, market.Options{AutoApprove: autoApprove})
	require.NoError(t, svc.Load(context.Background()))
	sessions, err := session.NewManager("test-secret", time.Hour, nil)
	require.NoError(t, err)

	r := gin.New()
	New(svc, sessions, nil).RegisterRoutes(r)
	return &testServer{r: r, svc: svc}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) signup(t *testing.T, email, name string) (string, models.User) {
	t.Helper()
	w := s.do("POST", "/auth/signup", "", map[string]string{"email": email, "password": "password", "name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp sessionResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User
}

func (s *testServer) listItem(t *testing.T, token string, body map[string]interface{}) models.Item {
	t.Helper()
	w := s.do("POST", "/items", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	return item
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m["error"]
}

func TestSignupLoginLogout(t *testing.T) {
	s := setupRouterWithDB(t, true)

	token, u := s.signup(t, "alice@example.com", "Alice")
	require.Equal(t, 100, u.Points)
	require.False(t, u.IsAdmin)

	// Duplicate email
	w := s.do("POST", "/auth/signup", "", map[string]string{"email": "alice@example.com", "password": "x", "name": "Other"})
	require.Equal(t, http.StatusConflict, w.Code)

	// Invalid payload
	w = s.do("POST", "/auth/signup", "", map[string]string{"email": "not-an-email", "password": "x", "name": "X"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// Wrong password
	w = s.do("POST", "/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do("POST", "/auth/login", "", map[string]string{"email": "alice@example.com", "password": "password"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do("GET", "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, u.ID, me.ID)

	w = s.do("PATCH", "/auth/me", token, map[string]string{"name": "Alice G"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.Equal(t, "Alice G", me.Name)

	w = s.do("POST", "/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do("GET", "/auth/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do("GET", "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAndBrowseItems(t *testing.T) {
	s := setupRouterWithDB(t, true)
	token, owner := s.signup(t, "owner@example.com", "Owner")

	item := s.listItem(t, token, map[string]interface{}{
		"title": "Denim Jacket", "category": "Outerwear", "condition": "like-new",
		"tags": []string{"Vintage", "denim"}, "images": []string{"a.jpg"},
	})
	require.Equal(t, 40, item.PointValue)
	require.Equal(t, owner.ID, item.UploaderID)
	require.Equal(t, models.ItemApproved, item.Status)
	s.listItem(t, token, map[string]interface{}{"title": "Plain Tee", "category": "Tops"})

	w := s.do("POST", "/items", token, map[string]interface{}{"title": "Bad", "condition": "mint"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do("POST", "/items", token, map[string]interface{}{"title": "Bad", "tags": []string{"a", "b", "c", "d", "e", "f"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do("POST", "/items", "", map[string]interface{}{"title": "Anon"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var list struct {
		Data []models.Item `json:"data"`
	}
	w = s.do("GET", "/items?q=vintage", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, item.ID, list.Data[0].ID)

	w = s.do("GET", "/items?limit=1", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	w = s.do("GET", "/items?limit=-1", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("GET", "/users/"+owner.ID+"/items", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)

	w = s.do("GET", "/items/"+item.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do("GET", "/items/missing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditItemOwnerOnly(t *testing.T) {
	s := setupRouterWithDB(t, true)
	ownerToken, _ := s.signup(t, "owner@example.com", "Owner")
	otherToken, _ := s.signup(t, "other@example.com", "Other")
	item := s.listItem(t, ownerToken, map[string]interface{}{"title": "Skirt", "condition": "new"})

	w := s.do("PATCH", "/items/"+item.ID, otherToken, map[string]string{"title": "Hijacked"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("PATCH", "/items/"+item.ID, ownerToken, map[string]string{"title": "Midi Skirt", "condition": "fair"})
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "Midi Skirt", got.Title)
	require.Equal(t, models.ConditionFair, got.Condition)
	require.Equal(t, 50, got.PointValue)
}

func TestPointsRedemptionFlow(t *testing.T) {
	s := setupRouterWithDB(t, true)
	ownerToken, owner := s.signup(t, "owner@example.com", "Owner")
	buyerToken, buyer := s.signup(t, "buyer@example.com", "Buyer")
	item := s.listItem(t, ownerToken, map[string]interface{}{"title": "Jacket", "condition": "good"})

	// Cannot request own item
	w := s.do("POST", "/items/"+item.ID+"/requests", ownerToken, map[string]string{"type": "points"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("POST", "/items/"+item.ID+"/requests", buyerToken, map[string]string{"type": "barter"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("POST", "/items/"+item.ID+"/requests", buyerToken, map[string]string{"type": "points", "message": "please"})
	require.Equal(t, http.StatusCreated, w.Code)
	var sr models.SwapRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sr))
	require.Equal(t, models.SwapPending, sr.Status)

	var list struct {
		Data []models.SwapRequest `json:"data"`
	}
	w = s.do("GET", "/requests", ownerToken, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)

	// Only the owner can accept
	w = s.do("POST", "/requests/"+sr.ID+"/accept", buyerToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("POST", "/requests/"+sr.ID+"/accept", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res market.Settlement
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, models.SwapCompleted, res.Request.Status)
	require.Equal(t, 30, res.Debited)
	require.Equal(t, 30, res.Credited)

	b, _ := s.svc.User(buyer.ID)
	o, _ := s.svc.User(owner.ID)
	require.Equal(t, 70, b.Points)
	require.Equal(t, 130, o.Points)

	w = s.do("POST", "/requests/"+sr.ID+"/accept", ownerToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Item is gone from browse and cannot be requested again
	w = s.do("POST", "/items/"+item.ID+"/requests", buyerToken, map[string]string{"type": "swap"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var ledger struct {
		Data  []models.PointLedger `json:"data"`
		Total int                  `json:"total"`
	}
	w = s.do("GET", "/users/"+buyer.ID+"/ledger", buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ledger))
	require.Equal(t, 2, ledger.Total)
	require.Equal(t, models.EventRedeemDebit, ledger.Data[0].EventType)
	require.Equal(t, 70, ledger.Data[0].BalanceAfter)

	w = s.do("GET", "/users/"+buyer.ID+"/ledger", ownerToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestInsufficientPoints(t *testing.T) {
	s := setupRouterWithDB(t, true)
	ownerToken, _ := s.signup(t, "owner@example.com", "Owner")
	buyerToken, _ := s.signup(t, "buyer@example.com", "Buyer")

	var items []models.Item
	for i := 0; i < 3; i++ {
		items = append(items, s.listItem(t, ownerToken, map[string]interface{}{"title": fmt.Sprintf("Coat %d", i), "condition": "new"}))
	}
	for _, it := range items[:2] {
		w := s.do("POST", "/items/"+it.ID+"/requests", buyerToken, map[string]string{"type": "points"})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	var list struct {
		Data []models.SwapRequest `json:"data"`
	}
	w := s.do("GET", "/requests", ownerToken, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	for _, sr := range list.Data {
		w = s.do("POST", "/requests/"+sr.ID+"/accept", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	// Balance is now 0, the last coat costs 50
	w = s.do("POST", "/items/"+items[2].ID+"/requests", buyerToken, map[string]string{"type": "points"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, market.ErrInsufficientPoints.Error(), errorOf(t, w))
}

func TestDeclineRequest(t *testing.T) {
	s := setupRouterWithDB(t, true)
	ownerToken, _ := s.signup(t, "owner@example.com", "Owner")
	buyerToken, _ := s.signup(t, "buyer@example.com", "Buyer")
	item := s.listItem(t, ownerToken, map[string]interface{}{"title": "Scarf", "condition": "fair"})

	w := s.do("POST", "/items/"+item.ID+"/requests", buyerToken, map[string]string{"type": "swap"})
	require.Equal(t, http.StatusCreated, w.Code)
	var sr models.SwapRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sr))

	w = s.do("POST", "/requests/"+sr.ID+"/decline", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sr))
	require.Equal(t, models.SwapRejected, sr.Status)

	w = s.do("POST", "/requests/missing/decline", ownerToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationRoutes(t *testing.T) {
	s := setupRouterWithDB(t, false)
	adminToken, admin := s.signup(t, "admin@rewear.com", "Admin")
	require.True(t, admin.IsAdmin)
	userToken, _ := s.signup(t, "user@example.com", "User")

	first := s.listItem(t, userToken, map[string]interface{}{"title": "Hat"})
	second := s.listItem(t, userToken, map[string]interface{}{"title": "Gloves"})
	require.Equal(t, models.ItemPending, first.Status)

	// Pending items are not browsable
	var list struct {
		Data []models.Item `json:"data"`
	}
	w := s.do("GET", "/items", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Empty(t, list.Data)

	w = s.do("POST", "/admin/items/"+first.ID+"/approve", userToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do("POST", "/admin/items/"+first.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do("POST", "/admin/items/"+second.ID+"/reject", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rejected models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rejected))
	require.Equal(t, models.ItemRejected, rejected.Status)
	require.False(t, rejected.IsAvailable)

	w = s.do("POST", "/admin/items/missing/approve", adminToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do("GET", "/admin/items?status=approved", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, first.ID, list.Data[0].ID)

	w = s.do("GET", "/admin/items?status=bogus", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("GET", "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats market.ModerationStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, market.ModerationStats{Total: 2, Approved: 1, Rejected: 1}, stats)
}

func TestOptions(t *testing.T) {
	s := setupRouterWithDB(t, true)
	w := s.do("GET", "/options", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Categories []string `json:"categories"`
		Conditions []struct {
			Value  string `json:"value"`
			Points int    `json:"points"`
		} `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, market.Categories, resp.Categories)
	require.Len(t, resp.Conditions, 4)
	require.Equal(t, 50, resp.Conditions[0].Points)
}

func TestLedgerPagination(t *testing.T) {
	s := setupRouterWithDB(t, true)
	ownerToken, _ := s.signup(t, "owner@example.com", "Owner")
	buyerToken, buyer := s.signup(t, "buyer@example.com", "Buyer")
	item := s.listItem(t, ownerToken, map[string]interface{}{"title": "Jacket", "condition": "good"})

	w := s.do("POST", "/items/"+item.ID+"/requests", buyerToken, map[string]string{"type": "points"})
	require.Equal(t, http.StatusCreated, w.Code)
	var sr models.SwapRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sr))
	w = s.do("POST", "/requests/"+sr.ID+"/accept", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// buyer ledger, newest first: redeem_debit, signup_grant
	cases := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantEvents   []string
	}{
		{"defaults", "", 1, 20, []string{models.EventRedeemDebit, models.EventSignupGrant}},
		{"first page of one", "?pageSize=1", 1, 1, []string{models.EventRedeemDebit}},
		{"second page of one", "?page=2&pageSize=1", 2, 1, []string{models.EventSignupGrant}},
		{"past the end", "?page=3&pageSize=1", 3, 1, []string{}},
		{"page size above cap", "?pageSize=500", 1, 20, []string{models.EventRedeemDebit, models.EventSignupGrant}},
		{"invalid page", "?page=0", 1, 20, []string{models.EventRedeemDebit, models.EventSignupGrant}},
		{"overflowing page", "?page=461168601842738792&pageSize=20", 461168601842738792, 20, []string{}},
		{"max page", "?page=9223372036854775807&pageSize=200", 9223372036854775807, 200, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do("GET", "/users/"+buyer.ID+"/ledger"+tc.query, buyerToken, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var resp struct {
				Data     []models.PointLedger `json:"data"`
				Page     int                  `json:"page"`
				PageSize int                  `json:"pageSize"`
				Total    int                  `json:"total"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, tc.wantPage, resp.Page)
			require.Equal(t, tc.wantPageSize, resp.PageSize)
			require.Equal(t, 2, resp.Total)
			events := []string{}
			for _, e := range resp.Data {
				events = append(events, e.EventType)
			}
			require.Equal(t, tc.wantEvents, events)
		})
	}
}
