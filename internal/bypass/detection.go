// Package bypass recognizes bot-protection walls so the scraper can treat a
// challenge page as "no usable content" instead of indexing it.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of a fetched page the detectors look at.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Detector reports whether a response is a challenge or block page and which
// vendor produced it.
type Detector func(r Response) (detected bool, source string)

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
		detectInterstitial,
	}
}

// Analyze runs r through detectors and returns the first hit.
func Analyze(r Response, detectors []Detector) (bool, string) {
	for _, d := range detectors {
		if detected, source := d(r); detected {
			return true, source
		}
	}
	return false, ""
}

func header(h http.Header, key string) string {
	if h == nil {
		return ""
	}
	return h.Get(key)
}

func bodyHas(body []byte, needles ...string) bool {
	for _, n := range needles {
		if bytes.Contains(body, []byte(n)) {
			return true
		}
	}
	return false
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
func detectCloudflare(r Response) (bool, string) {
	if r.Status != http.StatusForbidden && r.Status != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(r.Header, "Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bodyHas(r.Body, "cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare") {
		return true, "Cloudflare"
	}
	return false, ""
}

// detectAkamai looks for Akamai Bot Manager signatures.
func detectAkamai(r Response) (bool, string) {
	if r.Status != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(r.Header, "Server")), "akamai") {
		return true, "Akamai"
	}
	// Generic "Reference #" block page.
	if bodyHas(r.Body, "Reference #") && bodyHas(r.Body, "Access Denied") {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(r Response) (bool, string) {
	if r.Status != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(header(r.Header, "Server")), "datadome") ||
		header(r.Header, "X-DataDome") != "" || header(r.Header, "X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bodyHas(r.Body, "geo.captcha-delivery.com", "datadome") {
		return true, "DataDome"
	}
	return false, ""
}

// detectPerimeterX looks for PerimeterX (HUMAN) signatures.
func detectPerimeterX(r Response) (bool, string) {
	if r.Status != http.StatusForbidden {
		return false, ""
	}
	if header(r.Header, "X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bodyHas(r.Body, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return true, "PerimeterX"
	}
	return false, ""
}

// detectInterstitial catches challenge pages served with a 200, which would
// otherwise pass the status check and be scored as content.
func detectInterstitial(r Response) (bool, string) {
	if len(r.Body) > 64<<10 {
		// Real articles are rarely this small when they carry these markers;
		// large pages mentioning them are left alone.
		return false, ""
	}
	switch {
	case bodyHas(r.Body, "<title>Just a moment...</title>", "challenge-platform", "cf-chl-"):
		return true, "Cloudflare"
	case bodyHas(r.Body, "geo.captcha-delivery.com"):
		return true, "DataDome"
	case bodyHas(r.Body, "px-captcha", "_pxBlock"):
		return true, "PerimeterX"
	case bodyHas(r.Body, "Checking your browser before accessing", "Please enable JavaScript and cookies to continue"):
		return true, "Interstitial"
	}
	return false, ""
}
