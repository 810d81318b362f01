// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"log"

	"github.com/jeranaias/castchat/internal/model"
	"github.com/jeranaias/castchat/internal/store"
)

// Connect probes the local backend and rebuilds the model catalog. On
// success the catalog holds the local models followed by the remote
// catalog; on any failure it falls back to the remote catalog alone and
// the connection state goes to error. Connectivity problems are absorbed
// here, not returned: the caller reads the outcome from the store.
func (e *Engine) Connect(ctx context.Context) {
	e.store.SetConnectionState(store.ConnConnecting)
	e.local.SetBaseURL(e.store.OllamaAPIURL())

	if err := e.local.CheckRunning(ctx); err != nil {
		log.Printf("engine: local backend unreachable: %v", err)
		e.store.SetModels(model.RemoteCatalog())
		e.store.SetConnectionState(store.ConnError)
		return
	}

	infos, err := e.local.ListModels(ctx)
	if err != nil {
		log.Printf("engine: listing local models: %v", err)
		e.store.SetModels(model.RemoteCatalog())
		e.store.SetConnectionState(store.ConnError)
		return
	}

	remote := model.RemoteCatalog()
	models := make([]model.Model, 0, len(infos)+len(remote))
	for _, info := range infos {
		models = append(models, model.Model{Name: info.Name, IsLocal: true})
	}
	models = append(models, remote...)

	e.store.SetModels(models)
	e.store.SetConnectionState(store.ConnConnected)
}
