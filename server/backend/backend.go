/*
 * Copyright 2026 The Kanso Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package backend provides the backend implementation of Kanso.
// This package is responsible for managing the database and other
// resources required to run Kanso.
package backend

import (
	"fmt"
	"os"

	"github.com/kanso-team/kanso/pkg/mutation"
	"github.com/kanso-team/kanso/server/backend/database"
	memdb "github.com/kanso-team/kanso/server/backend/database/memory"
	"github.com/kanso-team/kanso/server/backend/database/mongo"
	"github.com/kanso-team/kanso/server/backend/database/sqlite"
	"github.com/kanso-team/kanso/server/backend/sync"
	"github.com/kanso-team/kanso/server/logging"
	"github.com/kanso-team/kanso/server/mutators"
	"github.com/kanso-team/kanso/server/profiling/prometheus"
)

// Backend manages Kanso's backend such as Database and Lockers.
type Backend struct {
	Config *Config

	// Lockers is used to serialize pushes of a client.
	Lockers *sync.LockerManager

	// Mutators is the registry of the authoritative mutators.
	Mutators *mutation.Registry[*mutators.Tx]

	// Metrics is used to expose metrics.
	Metrics *prometheus.Metrics
	// DB is the database instance.
	DB database.Database
}

// New creates a new instance of Backend. MongoDB is used when its
// configuration is given, then SQLite, then the memory database.
func New(
	conf *Config,
	sqliteConf *sqlite.Config,
	mongoConf *mongo.Config,
	metrics *prometheus.Metrics,
) (*Backend, error) {
	// 01. Build the server info with the given hostname or the hostname of the
	// current machine.
	if conf.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("os.Hostname: %w", err)
		}
		conf.Hostname = hostname
	}

	// 02. Create the database instance.
	var db database.Database
	var err error
	dbInfo := "memory"
	switch {
	case mongoConf != nil:
		db, err = mongo.Dial(mongoConf)
		dbInfo = mongoConf.ConnectionURI
	case sqliteConf != nil:
		db, err = sqlite.Open(sqliteConf)
		dbInfo = sqliteConf.Path
	default:
		db, err = memdb.New()
	}
	if err != nil {
		return nil, err
	}

	logging.DefaultLogger().Infof("backend created: db: %s", dbInfo)

	return &Backend{
		Config:   conf,
		Lockers:  sync.New(),
		Mutators: mutators.NewRegistry(),
		Metrics:  metrics,
		DB:       db,
	}, nil
}

// Shutdown closes all resources of this instance.
func (b *Backend) Shutdown() error {
	if err := b.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	logging.DefaultLogger().Infof("backend stopped")
	return nil
}
