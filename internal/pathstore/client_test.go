package pathstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_PutGetDelete(t *testing.T) {
	stored := map[string]json.RawMessage{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		key := r.URL.Path[len("/kv/"):]
		switch r.Method {
		case http.MethodPut:
			var req struct {
				Value json.RawMessage `json:"value"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			stored[key] = req.Value
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			v, ok := stored[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})
		case http.MethodDelete:
			delete(stored, key)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret")
	defer c.Close()
	ctx := context.Background()

	if err := c.PutNode(ctx, "docs/a", NodeRequest{Value: map[string]string{"html": "<p>x</p>"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	node, err := c.GetNode(ctx, "docs/a")
	if err != nil || node == nil {
		t.Fatalf("get: %v %v", node, err)
	}
	var v map[string]string
	if err := json.Unmarshal(node.Value, &v); err != nil || v["html"] != "<p>x</p>" {
		t.Errorf("expected stored value, got %s", node.Value)
	}
	if err := c.DeleteNode(ctx, "docs/a", false); err != nil {
		t.Fatalf("delete: %v", err)
	}
	node, err = c.GetNode(ctx, "docs/a")
	if err != nil || node != nil {
		t.Errorf("expected a missing node after delete, got %v %v", node, err)
	}
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		code      int
		temporary bool
	}{
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.code)
		}))
		c := NewClient(srv.URL, "k")
		err := c.PutNode(context.Background(), "docs/a", NodeRequest{Value: 1})
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("status %d: expected *StatusError, got %v", tt.code, err)
		}
		if se.Code != tt.code || se.Temporary() != tt.temporary {
			t.Errorf("status %d: expected temporary=%v, got code=%d temporary=%v", tt.code, tt.temporary, se.Code, se.Temporary())
		}
		srv.Close()
	}
}

func TestClient_ListChildren(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/kv/docs/*" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"nodes":[{"key_path":"docs/a","value":1},{"key_path":"docs/b","value":2}]}`))
	}))
	defer srv.Close()

	nodes, err := NewClient(srv.URL, "k").ListChildren(context.Background(), "docs", 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(nodes) != 2 || nodes[1].Key != "docs/b" {
		t.Errorf("expected 2 nodes, got %+v", nodes)
	}
}
