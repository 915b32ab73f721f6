package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"saral/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain takes first", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip header", map[string]string{"X-Real-IP": " 10.0.0.9 "}, "1.1.1.1:80", "10.0.0.9"},
		{"remote addr port stripped", nil, "192.168.1.4:5555", "192.168.1.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r))
		})
	}
}

func TestChannelFromUserAgent(t *testing.T) {
	assert.Equal(t, ChannelUnknown, ChannelFromUserAgent(""))
	assert.Equal(t, ChannelMobile, ChannelFromUserAgent("Mozilla/5.0 (Linux; Android 10; SM-A105F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.106 Mobile Safari/537.36"))
	assert.Equal(t, ChannelDesktop, ChannelFromUserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"))
	assert.Equal(t, ChannelBot, ChannelFromUserAgent("Googlebot/2.1 (+http://www.google.com/bot.html)"))
}

func TestClientMetadataMiddleware(t *testing.T) {
	var ip, channel string
	h := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		channel = requestcontext.Channel(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.1.1:1234"
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "10.1.1.1", ip)
	assert.Equal(t, ChannelUnknown, channel)
}
