// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command edgeproxy is the edge routing layer for the storefront SPA.
// Requests whose path ends in a known static-file extension are
// fetched from the object-storage origin and cached for a long time;
// every other path serves the origin's index.html with a short cache
// lifetime so deep links resolve to the client-side router.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/maxviazov/dolina-flower-order-frontend/pkg/config"
)

var staticExtensions = []string{
	".js", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg",
	".ico", ".json", ".txt", ".xml", ".map", ".woff", ".woff2",
	".ttf", ".eot", ".otf", ".webp", ".avif",
}

type proxy struct {
	origin     string
	staticTTL  time.Duration
	indexTTL   time.Duration
	httpClient *http.Client
	log        logrus.FieldLogger
}

func main() {
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadEdgeProxy()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	p := &proxy{
		origin:     strings.TrimRight(cfg.OriginBaseURL, "/"),
		staticTTL:  cfg.StaticCacheTTL,
		indexTTL:   cfg.IndexCacheTTL,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log,
	}

	log.Infof("starting edge proxy on %s:%s for origin %s", cfg.ListenAddr, cfg.Port, p.origin)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr+":"+cfg.Port, p))
}

func (p *proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target := p.origin + "/index.html"
	ttl := p.indexTTL
	if hasStaticExtension(r.URL.Path) {
		target = p.origin + r.URL.Path
		ttl = p.staticTTL
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.WithField("error", err).WithField("path", r.URL.Path).Error("origin fetch failed")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	// Pass the origin's status, headers and body through unchanged;
	// only the cache lifetime is decided at the edge.
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.log.WithField("error", err).Warn("response copy interrupted")
	}
}

func hasStaticExtension(path string) bool {
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
