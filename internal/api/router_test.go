package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/meur/wftracker/internal/catalog"
	"github.com/meur/wftracker/internal/inventory"
	"github.com/meur/wftracker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memKV struct{ data map[string][]byte }

func (m *memKV) Get(key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(key string, value []byte) error {
	m.data[key] = value
	return nil
}

const excaliburUN = "/Lotus/Powersuits/Excalibur/ExcaliburPrime"

func testCatalog() *catalog.Catalog {
	cat := catalog.New(nil)
	cat.Set([]models.CatalogItem{
		{
			UniqueName: excaliburUN,
			Name:       "Excalibur Prime",
			Category:   models.CategoryWarframes,
			ImageName:  "excalibur-prime.png",
			IsPrime:    true,
			Components: []models.ComponentRef{
				{UniqueName: "/Chassis", Name: "Chassis", ItemCount: 1},
				{UniqueName: "/Systems", Name: "Systems", ItemCount: 1},
			},
		},
		{UniqueName: "/Lotus/Weapons/Braton", Name: "Braton", Category: models.CategoryPrimary, Components: []models.ComponentRef{}},
		{UniqueName: "/Lotus/Weapons/Lex", Name: "Lex", Category: models.CategorySecondary, Components: []models.ComponentRef{}},
	})
	return cat
}

type testServer struct {
	*Server
	store *inventory.Store
	kv    *memKV
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	kv := &memKV{data: map[string][]byte{}}
	store, err := inventory.Open(kv)
	require.NoError(t, err)
	s := New(store, testCatalog(), Options{})
	t.Cleanup(s.Close)
	return &testServer{Server: s, store: store, kv: kv}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (ts *testServer) add(t *testing.T, uniqueName string) models.UserItemView {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/inventory", map[string]string{"uniqueName": uniqueName})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.UserItemView](t, rec)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestMeta(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/meta", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	meta := decode[struct {
		Categories []models.Category     `json:"categories"`
		Statuses   []models.StatusConfig `json:"statuses"`
	}](t, rec)
	assert.Equal(t, models.Categories(), meta.Categories)
	assert.Len(t, meta.Statuses, 6)
}

func TestSearchCatalog(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/catalog?q=prime", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[models.CatalogList](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Excalibur Prime", list.Items[0].Name)
	assert.Equal(t, 1, list.TotalCount)

	rec = ts.do(t, http.MethodGet, "/api/catalog?q=b", nil)
	list = decode[models.CatalogList](t, rec)
	assert.Empty(t, list.Items, "single character queries return nothing")
	assert.Contains(t, rec.Body.String(), `"items":[]`)

	rec = ts.do(t, http.MethodGet, "/api/catalog?q=bratn", nil)
	list = decode[models.CatalogList](t, rec)
	assert.Empty(t, list.Items)
	assert.Equal(t, []string{"Braton"}, list.Suggestions)

	rec = ts.do(t, http.MethodGet, "/api/catalog?q=br&limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogStatusAndLookup(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/catalog/status", nil)
	st := decode[catalog.Status](t, rec)
	assert.True(t, st.Loaded)
	assert.Equal(t, 3, st.Count)

	rec = ts.do(t, http.MethodGet, "/api/catalog/lookup?uniqueName="+url.QueryEscape(excaliburUN), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Item  models.CatalogItem `json:"item"`
		Links models.ItemLinks   `json:"links"`
	}](t, rec)
	assert.Equal(t, "Excalibur Prime", got.Item.Name)
	assert.Equal(t, "https://warframe.market/items/excalibur_prime_set", got.Links.Market)
	assert.Equal(t, "https://warframe.fandom.com/wiki/Excalibur_Prime", got.Links.Wiki)

	rec = ts.do(t, http.MethodGet, "/api/catalog/lookup?uniqueName=%2Fnope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/catalog/lookup", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem(t *testing.T) {
	ts := newTestServer(t)

	view := ts.add(t, excaliburUN)
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, models.StatusFarming, view.Status)
	assert.Equal(t, "Farming", view.StatusLabel)
	assert.Equal(t, 0.0, view.Progress)
	require.NotNil(t, view.Links)
	assert.Equal(t, "https://cdn.warframestat.us/img/excalibur-prime.png", view.Links.Image)

	rec := ts.do(t, http.MethodPost, "/api/inventory", map[string]string{"uniqueName": "/unknown"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/inventory", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/inventory", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 1, ts.store.Len())
}

func TestListInventoryFilters(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, excaliburUN)
	braton := ts.add(t, "/Lotus/Weapons/Braton")
	ts.add(t, "/Lotus/Weapons/Lex")

	rec := ts.do(t, http.MethodPatch, "/api/inventory/"+string(braton.ID), map[string]interface{}{"mastered": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/inventory", nil)
	list := decode[models.InventoryList](t, rec)
	require.Equal(t, 3, list.TotalCount)
	assert.Equal(t, "Lex", list.Items[0].Name, "most recent first")
	assert.Nil(t, list.Items[0].Links)

	rec = ts.do(t, http.MethodGet, "/api/inventory?hide_mastered=true", nil)
	list = decode[models.InventoryList](t, rec)
	assert.Equal(t, 2, list.TotalCount)

	rec = ts.do(t, http.MethodGet, "/api/inventory?category=Primary&q=BRA", nil)
	list = decode[models.InventoryList](t, rec)
	require.Equal(t, 1, list.TotalCount)
	assert.Equal(t, braton.ID, list.Items[0].ID)

	for _, bad := range []string{"category=Arcane", "status=lost", "hide_mastered=maybe"} {
		rec = ts.do(t, http.MethodGet, "/api/inventory?"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestUpdateItem(t *testing.T) {
	ts := newTestServer(t)
	item := ts.add(t, excaliburUN)
	path := "/api/inventory/" + string(item.ID)

	rec := ts.do(t, http.MethodPatch, path, map[string]interface{}{"status": "to_sell", "duplicates": 2, "notes": "one spare"})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[models.UserItemView](t, rec)
	assert.Equal(t, models.StatusToSell, view.Status)
	assert.Equal(t, "To sell", view.StatusLabel)
	assert.Equal(t, 2, view.Duplicates)
	assert.Equal(t, "one spare", view.Notes)

	rec = ts.do(t, http.MethodPatch, path, map[string]interface{}{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, map[string]interface{}{"duplicates": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, map[string]interface{}{"components": []map[string]interface{}{
		{"name": "X", "itemCount": 0},
		{"name": "Y", "itemCount": -5},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, path, map[string]interface{}{"components": []map[string]interface{}{
		{"uniqueName": "/Chassis", "owned": true},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "length must match")

	rec = ts.do(t, http.MethodPatch, path, map[string]interface{}{"components": []map[string]interface{}{
		{"uniqueName": "/Chassis", "owned": true, "itemCount": 0},
		{"uniqueName": "/Systems"},
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[models.UserItemView](t, rec)
	assert.Equal(t, 50.0, view.Progress)
	assert.Equal(t, 1, view.Components[0].ItemCount)

	rec = ts.do(t, http.MethodPatch, "/api/inventory/gone", map[string]interface{}{"owned": true})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got, _ := ts.store.Get(item.ID)
	assert.Equal(t, 2, got.Duplicates)
}

func TestGetAndDeleteItem(t *testing.T) {
	ts := newTestServer(t)
	item := ts.add(t, excaliburUN)
	path := "/api/inventory/" + string(item.ID)

	rec := ts.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, item.ID, decode[models.UserItemView](t, rec).ID)

	rec = ts.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, ts.store.Len())
}

func TestToggleComponent(t *testing.T) {
	ts := newTestServer(t)
	item := ts.add(t, excaliburUN)
	base := "/api/inventory/" + string(item.ID) + "/components/"

	rec := ts.do(t, http.MethodPost, base+"0/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[models.UserItemView](t, rec)
	assert.Equal(t, 50.0, view.Progress)
	assert.Equal(t, models.StatusFarming, view.Status)

	rec = ts.do(t, http.MethodPost, base+"1/toggle", nil)
	view = decode[models.UserItemView](t, rec)
	assert.Equal(t, 100.0, view.Progress)
	assert.Equal(t, models.StatusReadyToBuild, view.Status)

	rec = ts.do(t, http.MethodPost, base+"2/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, base+"x/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/inventory/gone/components/0/toggle", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, excaliburUN)
	ts.add(t, "/Lotus/Weapons/Lex")

	rec := ts.do(t, http.MethodGet, "/api/inventory/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), inventory.ExportFileName)
	exported := rec.Body.String()
	before := ts.store.Items()

	rec = ts.do(t, http.MethodPost, "/api/inventory/import", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), decode[map[string]interface{}](t, rec)["count"])
	assert.Equal(t, before, ts.store.Items())
}

func TestImportLegacyNumericID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/inventory/import", `[{"name":"X","id":1}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/inventory/export", nil)
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "X", items[0]["name"])
	assert.Equal(t, "1", items[0]["id"])
}

func TestImportRepairsComponentCounts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/inventory/import", `[{"id":"a","status":"lost","components":[{"name":"c","itemCount":0}]}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	item, ok := ts.store.Get("a")
	require.True(t, ok)
	assert.Equal(t, models.StatusNone, item.Status)
	assert.Equal(t, 1, item.Components[0].ItemCount)
}

func TestImportRejectsNonArray(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "/Lotus/Weapons/Lex")
	before := ts.store.Items()
	saved := string(ts.kv.data[inventory.DefaultKey])

	for _, body := range []string{`{"items": []}`, `not json`, ``, `[{"name": }]`} {
		rec := ts.do(t, http.MethodPost, "/api/inventory/import", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "Invalid JSON")
	}

	assert.Equal(t, before, ts.store.Items())
	assert.Equal(t, saved, string(ts.kv.data[inventory.DefaultKey]))
}

func TestExportXLSX(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, excaliburUN)

	rec := ts.do(t, http.MethodGet, "/api/inventory/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/vnd.openxmlformats"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Excalibur Prime", rows[1][1])
}

func TestExportXLSXFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, excaliburUN)
	ts.writeSpreadsheet = func(w io.Writer, items []models.UserItem) error {
		w.Write([]byte("partial"))
		return errors.New("disk full")
	}

	rec := ts.do(t, http.MethodGet, "/api/inventory/export.xlsx", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.NotContains(t, rec.Body.String(), "partial")
	assert.Contains(t, rec.Body.String(), "Failed to export spreadsheet")
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	item := ts.add(t, excaliburUN)
	ts.add(t, "/Lotus/Weapons/Lex")
	ts.do(t, http.MethodPatch, "/api/inventory/"+string(item.ID), map[string]interface{}{"owned": true})

	rec := ts.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[inventory.Stats](t, rec)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Owned)
	assert.Equal(t, 2, st.Farming)
	assert.Equal(t, 2, st.ByStatus[models.StatusFarming])
}

func TestMetricsRouteOptional(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	kv := &memKV{data: map[string][]byte{}}
	store, err := inventory.Open(kv)
	require.NoError(t, err)
	s := New(store, testCatalog(), Options{Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})})
	defer s.Close()

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
