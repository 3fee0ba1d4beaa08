package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteAddrExtractor(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		fallback   string
		want       string
	}{
		{
			name:       "host and port",
			remoteAddr: "10.1.2.3:54321",
			want:       "10.1.2.3",
		},
		{
			name:       "ipv6 host and port",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "bare address without port",
			remoteAddr: "10.1.2.3",
			want:       "10.1.2.3",
		},
		{
			name:       "empty address uses default fallback",
			remoteAddr: "",
			want:       DefaultFallbackKey,
		},
		{
			name:       "empty address uses configured fallback",
			remoteAddr: "",
			fallback:   "unknown-peer",
			want:       "unknown-peer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr

			extractor := RemoteAddrExtractor{Fallback: tt.fallback}
			if got := extractor.Key(req); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRemoteAddrExtractor_StablePerClient(t *testing.T) {
	extractor := RemoteAddrExtractor{}

	req1 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req1.RemoteAddr = "10.1.2.3:1111"
	req2 := httptest.NewRequest(http.MethodGet, "/test", nil)
	req2.RemoteAddr = "10.1.2.3:2222"

	if extractor.Key(req1) != extractor.Key(req2) {
		t.Errorf("Keys differ across ports: %q vs %q", extractor.Key(req1), extractor.Key(req2))
	}
}

func TestHeaderExtractor(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		values   []string
		fallback string
		want     string
	}{
		{
			name:   "single value",
			header: "X-API-Key",
			values: []string{"tenant-42"},
			want:   "tenant-42",
		},
		{
			name:   "repeated header joined",
			header: "X-API-Key",
			values: []string{"a", "b"},
			want:   "a-b",
		},
		{
			name:   "missing header uses default fallback",
			header: "X-API-Key",
			want:   DefaultFallbackKey,
		},
		{
			name:     "missing header uses configured fallback",
			header:   "X-API-Key",
			fallback: "anonymous",
			want:     "anonymous",
		},
		{
			name:   "empty value uses fallback",
			header: "X-API-Key",
			values: []string{""},
			want:   DefaultFallbackKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for _, v := range tt.values {
				req.Header.Add(tt.header, v)
			}

			extractor := HeaderExtractor{Header: tt.header, Fallback: tt.fallback}
			if got := extractor.Key(req); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}
