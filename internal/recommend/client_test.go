package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/validation"
)

func TestClient_Recommend_RequestBody(t *testing.T) {
	var got map[string]interface{}
	var gotPath, gotMethod, gotRequestID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotRequestID = r.Header.Get("X-Request-ID")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"51568","title":"Possession","url":"https://letterboxd.com/film/possession/","image_data":"data:image/jpeg;base64,AA"}]`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/api/"})
	movies, err := c.Recommend(context.Background(), Request{
		Usernames:  []string{"alice", "bob"},
		ExcludeIDs: []string{"m1"},
		NumMovies:  3,
		UseCache:   true,
	})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/api/movies" {
		t.Errorf("request = %s %s, want POST /api/movies", gotMethod, gotPath)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header missing")
	}

	want := map[string]interface{}{
		"usernames":   []interface{}{"alice", "bob"},
		"exclude_ids": []interface{}{"m1"},
		"num_movies":  float64(3),
		"use_cache":   true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("body = %v, want %v", got, want)
	}

	wantMovies := []domain.Movie{{
		ID:        "51568",
		Title:     "Possession",
		URL:       "https://letterboxd.com/film/possession/",
		ImageData: "data:image/jpeg;base64,AA",
	}}
	if !reflect.DeepEqual(movies, wantMovies) {
		t.Errorf("movies = %v, want %v", movies, wantMovies)
	}
}

func TestClient_Recommend_NilExcludesSentAsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	if _, err := c.Recommend(context.Background(), Request{Usernames: []string{"a"}, NumMovies: 1}); err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if string(raw["exclude_ids"]) != "[]" {
		t.Errorf("exclude_ids = %s, want []", raw["exclude_ids"])
	}
}

func TestClient_Recommend_Responses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantMovies []domain.Movie
		wantDetail string
		wantSvcErr bool
		wantErr    bool
	}{
		{
			name:       "empty array",
			status:     http.StatusOK,
			body:       `[]`,
			wantMovies: []domain.Movie{},
		},
		{
			name:       "movies envelope",
			status:     http.StatusOK,
			body:       `{"movies":[{"id":"1","title":"A","url":"u"}]}`,
			wantMovies: []domain.Movie{{ID: "1", Title: "A", URL: "u"}},
		},
		{
			name:       "legacy single movie",
			status:     http.StatusOK,
			body:       `{"movie":{"id":"2","title":"B","url":"v"}}`,
			wantMovies: []domain.Movie{{ID: "2", Title: "B", URL: "v"}},
		},
		{
			name:       "legacy null movie",
			status:     http.StatusOK,
			body:       `{"movie":null}`,
			wantMovies: []domain.Movie{},
		},
		{
			name:    "garbage success body",
			status:  http.StatusOK,
			body:    `<html>`,
			wantErr: true,
		},
		{
			name:       "string detail",
			status:     http.StatusInternalServerError,
			body:       `{"detail":"No movies found in any of the watchlists!"}`,
			wantSvcErr: true,
			wantDetail: "No movies found in any of the watchlists!",
		},
		{
			name:       "validation detail list",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail":[{"loc":["body","usernames"],"msg":"ensure this value has at most 5 items"}]}`,
			wantSvcErr: true,
			wantDetail: "ensure this value has at most 5 items",
		},
		{
			name:       "no detail",
			status:     http.StatusBadGateway,
			body:       `bad gateway`,
			wantSvcErr: true,
			wantDetail: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{BaseURL: srv.URL})
			movies, err := c.Recommend(context.Background(), Request{Usernames: []string{"alice"}, NumMovies: 1})

			switch {
			case tt.wantSvcErr:
				var svcErr *ServiceError
				if !errors.As(err, &svcErr) {
					t.Fatalf("err = %v, want *ServiceError", err)
				}
				if svcErr.StatusCode != tt.status || svcErr.Detail != tt.wantDetail {
					t.Errorf("ServiceError = %+v", svcErr)
				}
			case tt.wantErr:
				if err == nil {
					t.Fatal("expected error")
				}
				if UserMessage(err) != domain.MsgRecommendationErr {
					t.Errorf("UserMessage = %q", UserMessage(err))
				}
			default:
				if err != nil {
					t.Fatalf("Recommend: %v", err)
				}
				if !reflect.DeepEqual(movies, tt.wantMovies) {
					t.Errorf("movies = %#v, want %#v", movies, tt.wantMovies)
				}
			}
		})
	}
}

func TestClient_Recommend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{BaseURL: url})
	_, err := c.Recommend(context.Background(), Request{Usernames: []string{"alice"}, NumMovies: 1})

	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %v, want *ConnectivityError", err)
	}
	if got := UserMessage(err); got != "Unable to connect to the server. Please try again later." {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestClient_Recommend_ValidatesBeforeSending(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	tests := []struct {
		name string
		req  Request
	}{
		{name: "no usernames", req: Request{NumMovies: 1}},
		{name: "six usernames", req: Request{Usernames: []string{"a", "b", "c", "d", "e", "f"}, NumMovies: 1}},
		{name: "empty username", req: Request{Usernames: []string{""}, NumMovies: 1}},
		{name: "zero movies", req: Request{Usernames: []string{"a"}, NumMovies: 0}},
		{name: "six movies", req: Request{Usernames: []string{"a"}, NumMovies: 6}},
		{name: "six excludes", req: Request{Usernames: []string{"a"}, NumMovies: 1, ExcludeIDs: []string{"1", "2", "3", "4", "5", "6"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Recommend(context.Background(), tt.req)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *validation.Error", err)
			}
		})
	}
	if calls != 0 {
		t.Errorf("invalid requests reached the server %d times", calls)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "service detail", err: &ServiceError{StatusCode: 500, Detail: "boom"}, want: "boom"},
		{name: "service no detail", err: &ServiceError{StatusCode: 500}, want: domain.MsgRecommendationErr},
		{name: "connectivity", err: &ConnectivityError{Err: errors.New("dial tcp")}, want: domain.MsgUnableToConnect},
		{name: "other", err: errors.New("weird"), want: domain.MsgRecommendationErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
