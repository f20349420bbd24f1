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
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/maxviazov/dolina-flower-order-frontend/internal/api"
	"github.com/maxviazov/dolina-flower-order-frontend/internal/catalog"
	"github.com/maxviazov/dolina-flower-order-frontend/internal/domain"
	"github.com/maxviazov/dolina-flower-order-frontend/internal/order"
)

var validSortKeys = []catalog.SortKey{catalog.SortByPrice, catalog.SortByVariety, catalog.SortByLength}

// refreshCatalogHandler reloads the catalog from the backend. Retry is
// the caller's decision; a failed load keeps the previous catalog.
func (fe *frontendServer) refreshCatalogHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("refreshing catalog")

	if err := fe.catalog.Load(r.Context()); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "could not refresh catalog"), http.StatusBadGateway)
		return
	}
	renderJSON(log, w, http.StatusOK, map[string]interface{}{
		"state": fe.catalog.State().String(),
	})
}

// catalogHandler derives the query state from the request alone, so an
// omitted parameter means its default. The engine is shared across
// sessions; carrying query state over from a previous request would
// leak one caller's filters into another's view.
func (fe *frontendServer) catalogHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	q := r.URL.Query()

	fe.catalog.SetSearchTerm(q.Get("search"))

	key := catalog.SortByVariety
	if q.Has("sort_by") {
		key = catalog.SortKey(q.Get("sort_by"))
		if !sortKeyValid(key) {
			renderHTTPError(log, w, errors.Errorf("invalid sort_by %q", key), http.StatusBadRequest)
			return
		}
	}
	fe.catalog.SetSortKey(key)

	dir := catalog.Ascending
	if q.Has("sort_order") {
		switch v := q.Get("sort_order"); v {
		case string(catalog.Ascending):
			dir = catalog.Ascending
		case string(catalog.Descending):
			dir = catalog.Descending
		default:
			renderHTTPError(log, w, errors.Errorf("invalid sort_order %q", v), http.StatusBadRequest)
			return
		}
	}
	fe.catalog.SetSortDirection(dir)

	variety, length, farm := q.Get("variety"), q.Get("length"), q.Get("farm")
	fe.catalog.SetFieldFilters(catalog.FilterUpdate{
		Variety: &variety,
		Length:  &length,
		Farm:    &farm,
	})

	view := fe.catalog.FilteredView()
	resp := map[string]interface{}{
		"flowers": view,
		"state":   fe.catalog.State().String(),
	}
	if err := fe.catalog.Err(); err != nil {
		resp["error"] = err.Error()
	}
	renderJSON(log, w, http.StatusOK, resp)
}

func (fe *frontendServer) viewOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	c := fe.orders.get(sessionID(r))
	renderWorkingOrder(log, w, c)
}

// addOrderItemHandler snapshots a catalog item into the working order.
// The line item keeps the price the caller saw even if the catalog is
// refreshed afterwards.
func (fe *frontendServer) addOrderItemHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	var payload struct {
		domain.CatalogItem
		Comments string `json:"comments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid line item"), http.StatusBadRequest)
		return
	}
	log.WithField("variety", payload.Variety).Debug("adding line item")

	c := fe.orders.get(sessionID(r))
	c.AddLineItem(domain.NewLineItem(payload.CatalogItem, payload.Comments))
	renderWorkingOrder(log, w, c)
}

func (fe *frontendServer) replaceOrderItemHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		renderHTTPError(log, w, errors.New("invalid line item index"), http.StatusBadRequest)
		return
	}
	var item domain.OrderLineItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid line item"), http.StatusBadRequest)
		return
	}

	c := fe.orders.get(sessionID(r))
	c.ReplaceLineItem(index, item)
	renderWorkingOrder(log, w, c)
}

func (fe *frontendServer) removeOrderItemHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		renderHTTPError(log, w, errors.New("invalid line item index"), http.StatusBadRequest)
		return
	}

	c := fe.orders.get(sessionID(r))
	c.RemoveLineItem(index)
	renderWorkingOrder(log, w, c)
}

func (fe *frontendServer) setOrderMetaHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	var update order.MetadataUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "invalid order metadata"), http.StatusBadRequest)
		return
	}

	c := fe.orders.get(sessionID(r))
	c.SetMetadata(update)
	renderWorkingOrder(log, w, c)
}

func (fe *frontendServer) submitOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("submitting order")

	c := fe.orders.get(sessionID(r))
	id, err := c.Submit(r.Context())
	if err != nil {
		renderHTTPError(log, w, errors.Wrap(err, "failed to submit order"), orderErrorStatus(err))
		return
	}
	log.WithField("order", id).Info("order placed")
	renderJSON(log, w, http.StatusOK, map[string]interface{}{"id": id})
}

func (fe *frontendServer) confirmedOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	id := mux.Vars(r)["id"]

	c := fe.orders.get(sessionID(r))
	confirmed, err := c.LoadConfirmed(r.Context(), id)
	if err != nil {
		renderHTTPError(log, w, errors.Wrapf(err, "could not retrieve order %s", id), orderErrorStatus(err))
		return
	}
	renderJSON(log, w, http.StatusOK, confirmed)
}

func (fe *frontendServer) resetOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("resetting order")

	c := fe.orders.get(sessionID(r))
	c.Reset()
	renderWorkingOrder(log, w, c)
}

func renderWorkingOrder(log logrus.FieldLogger, w http.ResponseWriter, c *order.Composer) {
	meta := c.Metadata()
	resp := map[string]interface{}{
		"items":       c.LineItems(),
		"mark_box":    meta.MarkBox,
		"customer_id": meta.CustomerID,
		"notes":       meta.Notes,
		"total":       c.Total().StringFixed(2),
		"state":       c.State().String(),
	}
	if err := c.Err(); err != nil {
		resp["error"] = err.Error()
	}
	renderJSON(log, w, http.StatusOK, resp)
}

func sortKeyValid(key catalog.SortKey) bool {
	for _, k := range validSortKeys {
		if k == key {
			return true
		}
	}
	return false
}

func orderErrorStatus(err error) int {
	var validationErr *order.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusUnprocessableEntity
	}
	var notFoundErr *api.NotFoundError
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func renderJSON(log logrus.FieldLogger, w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err)
	}
}

func renderHTTPError(log logrus.FieldLogger, w http.ResponseWriter, err error, code int) {
	log.WithField("error", err).Error("request error")
	renderJSON(log, w, code, map[string]interface{}{
		"error":       err.Error(),
		"status_code": code,
		"status":      http.StatusText(code),
	})
}

func sessionID(r *http.Request) string {
	v := r.Context().Value(ctxKeySessionID{})
	if v != nil {
		return v.(string)
	}
	return ""
}
