package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// stubEncoder renders only the query text.
type stubEncoder struct{}

func (stubEncoder) Encode(p domain.SearchParameters) url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("query", p.Query)
	}
	if p.Permalink != "" {
		v.Set("permalink", p.Permalink.String())
	}
	return v
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:    srv.URL,
		Token:      "tok-123",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, stubEncoder{})
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		encoder QueryEncoder
		wantErr error
	}{
		{"missing url", Config{}, stubEncoder{}, domain.ErrNotConfigured},
		{"bad url", Config{BaseURL: "not a url"}, stubEncoder{}, domain.ErrInvalidInput},
		{"missing encoder", Config{BaseURL: "https://eln.example.org"}, nil, domain.ErrNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg, tt.encoder)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigFromSettings(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Server = domain.ServerSettings{URL: "https://eln.example.org", Token: "t"}

	cfg := ConfigFromSettings(settings)

	assert.Equal(t, "https://eln.example.org", cfg.BaseURL)
	assert.Equal(t, "t", cfg.Token)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 10, cfg.Burst)
}

func TestClient_Search_SendsBearerAndQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/inventory/search", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "freezer", r.URL.Query().Get("query"))
		writeJSON(t, w, map[string]any{
			"totalHits": 1,
			"records":   []map[string]any{{"globalId": "SA12", "name": "Buffer", "type": "SAMPLE"}},
		})
	})

	results, err := client.Search(context.Background(), domain.DefaultSearchParameters().With(domain.WithQuery("freezer")))

	require.NoError(t, err)
	assert.Equal(t, 1, results.TotalHits)
	require.Len(t, results.Records, 1)
	assert.Equal(t, domain.GlobalID("SA12"), results.Records[0].GlobalID)
}

func TestClient_Search_EmptyRecordsNotNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"totalHits": 0})
	})

	results, err := client.Search(context.Background(), domain.DefaultSearchParameters())

	require.NoError(t, err)
	assert.NotNil(t, results.Records)
	assert.Empty(t, results.Records)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(t, w, []map[string]any{{"globalId": "BA1", "name": "Mine", "itemCount": 2}})
	})

	baskets, err := client.ListBaskets(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	require.Len(t, baskets, 1)
	assert.Equal(t, "Mine", baskets[0].Name)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		wantCalls int32
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized, 1},
		{"forbidden", http.StatusForbidden, domain.ErrUnauthorized, 1},
		{"not found", http.StatusNotFound, domain.ErrNotFound, 1},
		{"bad request", http.StatusBadRequest, domain.ErrInvalidInput, 1},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited, 3},
		{"unavailable", http.StatusServiceUnavailable, domain.ErrServerUnavailable, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			})

			_, err := client.GetRecord(context.Background(), "SA1")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			var opErr *domain.OperationError
			require.True(t, errors.As(err, &opErr))
			assert.Equal(t, "get SA1", opErr.Op)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_CancelledContextStopsRetrying(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListBaskets(ctx)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RecordWrites(t *testing.T) {
	type call struct {
		method, path string
		body         map[string]any
	}
	var (
		mu  sync.Mutex
		got []call
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		mu.Lock()
		got = append(got, call{r.Method, r.URL.Path, body})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	require.NoError(t, client.RenameRecord(ctx, "SA1", "New name"))
	require.NoError(t, client.SetTags(ctx, "SA1", nil))
	require.NoError(t, client.ShareRecords(ctx, []domain.GlobalID{"SA1", "IC2"}, []int64{7}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	assert.Equal(t, call{http.MethodPut, "/inventory/records/SA1/name", map[string]any{"name": "New name"}}, got[0])
	assert.Equal(t, call{http.MethodPut, "/inventory/records/SA1/tags", map[string]any{"tags": []any{}}}, got[1])
	assert.Equal(t, http.MethodPost, got[2].method)
	assert.Equal(t, "/inventory/share", got[2].path)
	assert.Equal(t, []any{"SA1", "IC2"}, got[2].body["globalIds"])
	assert.Equal(t, []any{7.0}, got[2].body["groupIds"])
}

func TestClient_ParseInputString(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/system/userRegistration/parseInputString", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("usersAndGroupsCsvFormat"), "alice")
		writeJSON(t, w, map[string]any{
			"data": map[string]any{
				"parsedUsers": []map[string]any{
					{"username": "alice", "firstName": "Alice", "lastName": "A", "email": "a@x.org"},
					{"username": "bob", "firstName": "Bob", "lastName": "B", "email": "bob"},
				},
				"parsedGroups":      []map[string]any{{"displayName": "Lab", "pi": "alice"}},
				"parsedCommunities": []map[string]any{},
			},
			"errorMsg": map[string]any{"errorMessages": []string{
				"user.bob.email.not a valid email",
				"general failure",
			}},
		})
	})

	parsed, unrouted, err := client.ParseInputString(context.Background(), "user,alice,Alice,A,a@x.org")

	require.NoError(t, err)
	assert.Len(t, parsed.Users, 2)
	assert.Len(t, parsed.Groups, 1)
	assert.Empty(t, parsed.Communities)
	assert.Equal(t, []domain.RowKind{domain.RowKindUser, domain.RowKindGroup}, parsed.VisibleTables())
	assert.Equal(t, "not a valid email", parsed.Users[1].Errors["email"])
	assert.Equal(t, []string{"general failure"}, unrouted)
}

func TestClient_ParseCSV_Multipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/system/userRegistration/csvUpload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "users.csv", header.Filename)
		assert.Equal(t, "user,alice", string(data))
		writeJSON(t, w, map[string]any{"data": map[string]any{"parsedUsers": []map[string]any{{"username": "alice"}}}})
	})

	parsed, unrouted, err := client.ParseCSV(context.Background(), "/tmp/users.csv", strings.NewReader("user,alice"))

	require.NoError(t, err)
	assert.Len(t, parsed.Users, 1)
	assert.Empty(t, unrouted)
}

func TestClient_BatchCreate_ReturnsMessages(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/system/userRegistration/batchCreate", r.URL.Path)
		var body domain.ParsedRegistration
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Len(t, body.Groups, 1)
		assert.Empty(t, body.Users)
		writeJSON(t, w, map[string]any{
			"data":     nil,
			"errorMsg": map[string]any{"errorMessages": []string{"group.Lab.pi.unknown user"}},
		})
	})

	msgs, err := client.CreateGroups(context.Background(), []domain.GroupRow{{DisplayName: "Lab", PI: "zed"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"group.Lab.pi.unknown user"}, msgs)
}

func TestClient_Admin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/community/admin/ajax/groups":
			writeJSON(t, w, map[string]any{"data": []map[string]any{{"id": 2, "displayName": "b"}, {"id": 1, "displayName": "A"}}})
		case "/community/admin/ajax/deleteGroup":
			require.NoError(t, r.ParseForm())
			if r.PostForm.Get("id") == "9" {
				writeJSON(t, w, map[string]any{"data": false, "errorMsg": map[string]any{"errorMessages": []string{"group has members"}}})
				return
			}
			writeJSON(t, w, map[string]any{"data": true})
		case "/system/ldap/ajax/retrieveSidForUser":
			if r.URL.Query().Get("username") == "ghost" {
				writeJSON(t, w, map[string]any{"data": ""})
				return
			}
			writeJSON(t, w, map[string]any{"data": "S-1-5-21-" + r.URL.Query().Get("username")})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	groups, err := client.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
	assert.Equal(t, "b", groups[0].DisplayName) // server order

	require.NoError(t, client.DeleteGroup(ctx, 1))
	err = client.DeleteGroup(ctx, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group has members")

	sid, err := client.RetrieveSID(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "S-1-5-21-ann", sid)

	_, err = client.RetrieveSID(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = client.ListCommunities(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon"))
}

func TestClient_Backoff(t *testing.T) {
	c := &Client{retryDelay: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 16 * time.Second},
		{6, MaxRetryDelay},
		{64, MaxRetryDelay},
		{1000, MaxRetryDelay},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, c.backoff(tt.attempt))
		})
	}
}

func TestNewClient_CapsRetries(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "https://eln.example.org", MaxRetries: 1000}, stubEncoder{})
	require.NoError(t, err)

	assert.Equal(t, domain.MaxHTTPRetries, c.maxRetries)
}
