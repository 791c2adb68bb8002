// Package elastictest giả lập các endpoint Elasticsearch cần cho test
package elastictest

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
)

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	indices  map[string]json.RawMessage
	docs     map[string]json.RawMessage
	searches []map[string]interface{}

	// SearchHandler thay thế câu trả lời mặc định cho _search khi được gán
	SearchHandler func(body map[string]interface{}) (int, interface{})
}

func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		indices: map[string]json.RawMessage{},
		docs:    map[string]json.RawMessage{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) Docs() map[string]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.docs))
	for k, v := range s.docs {
		out[k] = v
	}
	return out
}

func (s *Server) Mapping(index string) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.indices[index]
	return m, ok
}

func (s *Server) Searches() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.searches...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.URL.Path == "/" && (r.Method == http.MethodGet || r.Method == http.MethodHead):
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":         "fake",
			"cluster_name": "test",
			"version":      map[string]string{"number": "8.15.0", "build_flavor": "default"},
			"tagline":      "You Know, for Search",
		})
	case parts[len(parts)-1] == "_bulk":
		s.bulk(w, r)
	case len(parts) == 2 && parts[1] == "_search":
		s.search(w, r)
	case len(parts) == 1 && r.Method == http.MethodHead:
		s.mu.Lock()
		_, ok := s.indices[parts[0]]
		s.mu.Unlock()
		if ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case len(parts) == 1 && r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.indices[parts[0]] = body
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true, "index": parts[0]})
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.mu.Lock()
		delete(s.indices, parts[0])
		s.docs = map[string]json.RawMessage{}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": true})
	default:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "unsupported " + r.Method + " " + r.URL.Path})
	}
}

func (s *Server) bulk(w http.ResponseWriter, r *http.Request) {
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 1<<20), 10<<20)

	var items []map[string]interface{}
	s.mu.Lock()
	defer s.mu.Unlock()
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var meta map[string]struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(line, &meta); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		for action, m := range meta {
			switch action {
			case "index", "create":
				if !scanner.Scan() {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing source"})
					return
				}
				s.docs[m.ID] = append(json.RawMessage(nil), scanner.Bytes()...)
				items = append(items, map[string]interface{}{action: map[string]interface{}{"_id": m.ID, "status": 201, "result": "created"}})
			case "delete":
				status, result := 200, "deleted"
				if _, ok := s.docs[m.ID]; !ok {
					status, result = 404, "not_found"
				}
				delete(s.docs, m.ID)
				items = append(items, map[string]interface{}{action: map[string]interface{}{"_id": m.ID, "status": status, "result": result}})
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"took": 1, "errors": false, "items": items})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.searches = append(s.searches, body)
	handler := s.SearchHandler
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	if handler != nil {
		status, resp := handler(body)
		writeJSON(w, status, resp)
		return
	}

	sort.Strings(ids)
	hits := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, map[string]interface{}{"_id": id, "_score": 1.0})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"took": 1,
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": len(hits), "relation": "eq"},
			"hits":  hits,
		},
	})
}
