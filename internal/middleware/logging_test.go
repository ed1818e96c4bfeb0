package middleware

import "testing"

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/videos", "/api/videos"},
		{"/api/videos/dQw4w9WgXcQ", "/api/videos/:videoId"},
		{"/api/analytics/views/toggle", "/api/analytics/views/toggle"},
		{"/auth/callback", "/auth/callback"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.in); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHashIPForLog(t *testing.T) {
	a := hashIPForLog("203.0.113.7")
	if len(a) != 12 {
		t.Errorf("len = %d, want 12", len(a))
	}
	if a == hashIPForLog("203.0.113.8") {
		t.Error("different IPs hashed to the same prefix")
	}
	if a != hashIPForLog("203.0.113.7") {
		t.Error("hash is not stable")
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"http://localhost:5173", []string{"http://localhost:5173"}},
		{" http://a.example , http://b.example ,", []string{"http://a.example", "http://b.example"}},
		{" , ", []string{"*"}},
	}
	for _, tt := range tests {
		got := parseOrigins(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseOrigins(%q) = %v, want %v", tt.in, got, tt.want)
				break
			}
		}
	}
}
