package safetydata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

func TestFetch_FlatArray(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"serviceKey": r.URL.Query().Get("serviceKey"),
			"pageNo":     r.URL.Query().Get("pageNo"),
			"numOfRows":  r.URL.Query().Get("numOfRows"),
			"type":       r.URL.Query().Get("type"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"MD101_SN": 212345,
				"DSSTR_SE_NM": "지진",
				"RCV_AREA_NM": "제주특별자치도",
				"MSG": "지진 발생. 낙하물에 주의하세요.",
				"EMRG_STEP_NM": "긴급재난",
				"CRT_DT": "2026/03/01 09:00:00"
			},
			{
				"MD101_SN": "212346",
				"DSSTR_SE_NM": "호우",
				"RCV_AREA_NM": "제주특별자치도 제주시",
				"MSG": "호우경보 발령. 하천 주변 접근 금지.",
				"EMRG_STEP_NM": "안전안내",
				"CRT_DT": "2026/03/01 09:05:00"
			}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	alerts, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, "test-key", gotQuery["serviceKey"])
	assert.Equal(t, "1", gotQuery["pageNo"])
	assert.Equal(t, "50", gotQuery["numOfRows"])
	assert.Equal(t, "json", gotQuery["type"])

	assert.Equal(t, "212345", alerts[0].ID)
	assert.Equal(t, domain.CategoryEarthquake, alerts[0].Category)
	assert.Equal(t, "지진", alerts[0].CategoryLabel)
	assert.Equal(t, "제주특별자치도", alerts[0].AreaName)
	assert.Equal(t, "긴급재난", alerts[0].Severity)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), alerts[0].IssuedAt)

	assert.Equal(t, "212346", alerts[1].ID)
	assert.Equal(t, domain.CategoryFlood, alerts[1].Category)
}

func TestFetch_NestedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"DisasterMsg": {
				"row": [
					{
						"MD101_SN": 212347,
						"DSSTR_SE_NM": "산불",
						"RCV_AREA_NM": "제주특별자치도 서귀포시",
						"MSG": "산불 확산 중. 인근 주민은 대피하세요.",
						"EMRG_STEP_NM": "긴급재난",
						"CRT_DT": "2026/03/01 10:00:00"
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	alerts, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.CategoryWildfire, alerts[0].Category)
}

func TestFetch_SkipsEmptyMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"MD101_SN": 1, "DSSTR_SE_NM": "지진", "MSG": "", "CRT_DT": "2026/03/01 09:00:00"},
			{"MD101_SN": 2, "DSSTR_SE_NM": "지진", "MSG": "지진 발생.", "CRT_DT": "2026/03/01 09:00:00"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	alerts, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "2", alerts[0].ExternalID)
}

func TestFetch_MissingSerialFallsBackToTimestamp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"DSSTR_SE_NM": "태풍", "MSG": "태풍 접근 중.", "CRT_DT": "2026/03/01 11:00:00"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	alerts, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, len(alerts[0].ID) > 3 && alerts[0].ID[:3] == "ts-")
}

func TestFetch_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFetch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
