package bypass

import (
	"net/http"
	"testing"
)

func resp(status int, h map[string]string, body string) Response {
	hdr := http.Header{}
	for k, v := range h {
		hdr.Set(k, v)
	}
	return Response{Status: status, Header: hdr, Body: []byte(body)}
}

func TestDetectors(t *testing.T) {
	tests := []struct {
		name   string
		r      Response
		want   bool
		source string
	}{
		{"plain page", resp(200, map[string]string{"Server": "nginx"}, "<html>OK</html>"), false, ""},
		{"cf header", resp(403, map[string]string{"Server": "cloudflare"}, "Access Denied"), true, "Cloudflare"},
		{"cf body", resp(503, nil, "<html>... cf-turnstile ...</html>"), true, "Cloudflare"},
		{"cf header on 200 ignored", resp(200, map[string]string{"Server": "cloudflare"}, "<html>article</html>"), false, ""},
		{"akamai header", resp(403, map[string]string{"Server": "AkamaiGHost"}, ""), true, "Akamai"},
		{"akamai body", resp(403, nil, "Access Denied... Reference #123.456"), true, "Akamai"},
		{"datadome header", resp(403, map[string]string{"X-DataDome": "1"}, ""), true, "DataDome"},
		{"datadome body", resp(403, nil, "script src='https://geo.captcha-delivery.com/...'"), true, "DataDome"},
		{"px header", resp(403, map[string]string{"X-Px-Captcha": "1"}, ""), true, "PerimeterX"},
		{"px body", resp(403, nil, "<div id='px-captcha'></div>"), true, "PerimeterX"},
		{"interstitial 200", resp(200, nil, "<html><head><title>Just a moment...</title></head></html>"), true, "Cloudflare"},
		{"generic 200 wall", resp(200, nil, "Checking your browser before accessing example.com"), true, "Interstitial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src := Analyze(tt.r, DefaultDetectors())
			if got != tt.want || src != tt.source {
				t.Errorf("Analyze() = (%v, %q), want (%v, %q)", got, src, tt.want, tt.source)
			}
		})
	}
}

func TestAnalyze_NoDetectors(t *testing.T) {
	if got, _ := Analyze(resp(403, map[string]string{"Server": "cloudflare"}, ""), nil); got {
		t.Errorf("expected no detection without detectors")
	}
}
