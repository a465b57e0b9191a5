package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchSendsBearerToken(t *testing.T) {
	const payload = "id: x\npattern: '^x'\nseverity: low\ndescription: test\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer s3cret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, "s3cret")
	data, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Fatalf("unexpected body %q", data)
	}
}

func TestFetchSkipsAuthHeaderWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("unexpected Authorization header")
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	if _, err := NewHTTPFetcher(srv.URL, "").Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestFetchRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := NewHTTPFetcher(srv.URL, "").Fetch(context.Background()); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}
