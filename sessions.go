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
	"sync"

	"github.com/maxviazov/dolina-flower-order-frontend/internal/order"
)

// composerStore hands out one order composer per browser session. The
// working order lives only in this process's memory for the lifetime
// of the session; there is no persistence.
type composerStore struct {
	backend order.Service

	mu        sync.Mutex
	composers map[string]*order.Composer
}

func newComposerStore(backend order.Service) *composerStore {
	return &composerStore{
		backend:   backend,
		composers: make(map[string]*order.Composer),
	}
}

func (s *composerStore) get(sessionID string) *order.Composer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.composers[sessionID]
	if !ok {
		c = order.NewComposer(s.backend)
		s.composers[sessionID] = c
	}
	return c
}
