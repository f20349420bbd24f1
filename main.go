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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/maxviazov/dolina-flower-order-frontend/internal/api"
	"github.com/maxviazov/dolina-flower-order-frontend/internal/catalog"
	"github.com/maxviazov/dolina-flower-order-frontend/pkg/config"
)

const (
	cookieMaxAge = 60 * 60 * 48

	cookiePrefix    = "dolina_"
	cookieSessionID = cookiePrefix + "session-id"
)

var (
	baseUrl = ""
)

type ctxKeySessionID struct{}

type frontendServer struct {
	catalog *catalog.Engine
	orders  *composerStore
}

func main() {
	ctx := context.Background()
	log := logrus.New()
	log.Level = logrus.DebugLevel
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

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.Level = level
	}

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

	baseUrl = cfg.BaseURL

	if cfg.EnableTracing {
		log.Info("Tracing enabled.")
		initTracing(log, ctx)
	} else {
		log.Info("Tracing disabled.")
	}

	if cfg.EnableProfiler {
		log.Info("Profiling enabled.")
		go initProfiling(log, "frontend", "1.0.0")
	} else {
		log.Info("Profiling disabled.")
	}

	backend := api.New(cfg.APIBaseURL, cfg.RequestTimeout)
	svc := &frontendServer{
		catalog: catalog.NewEngine(backend),
		orders:  newComposerStore(backend),
	}

	var handler http.Handler = svc.router()
	handler = &logHandler{log: log, next: handler}     // add logging
	handler = ensureSessionID(handler)                 // add session ID
	handler = otelhttp.NewHandler(handler, "frontend") // add OTel tracing

	log.Infof("starting server on %s:%s", cfg.ListenAddr, cfg.Port)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr+":"+cfg.Port, handler))
}

func (fe *frontendServer) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(baseUrl+"/api/catalog", fe.catalogHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/api/catalog/refresh", fe.refreshCatalogHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/api/order", fe.viewOrderHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(baseUrl+"/api/order/items", fe.addOrderItemHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/api/order/items/{index}", fe.replaceOrderItemHandler).Methods(http.MethodPut)
	r.HandleFunc(baseUrl+"/api/order/items/{index}", fe.removeOrderItemHandler).Methods(http.MethodDelete)
	r.HandleFunc(baseUrl+"/api/order/meta", fe.setOrderMetaHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/api/order/submit", fe.submitOrderHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/api/order/confirmed/{id}", fe.confirmedOrderHandler).Methods(http.MethodGet)
	r.HandleFunc(baseUrl+"/api/order/reset", fe.resetOrderHandler).Methods(http.MethodPost)
	r.HandleFunc(baseUrl+"/robots.txt", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "User-agent: *\nDisallow: /") })
	r.HandleFunc(baseUrl+"/_healthz", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "ok") })
	return r
}

func initTracing(log logrus.FieldLogger, ctx context.Context) (*sdktrace.TracerProvider, error) {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	log.Info("Tracing provider initialized (no exporter configured)")
	return tp, nil
}

func initProfiling(log logrus.FieldLogger, service, version string) {
	// TODO(ahmetb) this method is duplicated in other microservices using Go
	// since they are not sharing packages.
	for i := 1; i <= 3; i++ {
		log = log.WithField("retry", i)
		if err := profiler.Start(profiler.Config{
			Service:        service,
			ServiceVersion: version,
			// ProjectID must be set if not running on GCP.
			// ProjectID: "my-project",
		}); err != nil {
			log.Warnf("warn: failed to start profiler: %+v", err)
		} else {
			log.Info("started Stackdriver profiler")
			return
		}
		d := time.Second * 10 * time.Duration(i)
		log.Debugf("sleeping %v to retry initializing Stackdriver profiler", d)
		time.Sleep(d)
	}
	log.Warn("warning: could not initialize Stackdriver profiler after retrying, giving up")
}
