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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// ColClientGroups represents the client group collection in the database.
	ColClientGroups = "client_groups"
	// ColClients represents the clients collection in the database.
	ColClients = "clients"
	// ColSpaces represents the space version collection in the database.
	ColSpaces = "spaces"
	// ColBoards represents the boards collection in the database.
	ColBoards = "boards"
	// ColColumns represents the columns collection in the database.
	ColColumns = "columns"
	// ColTasks represents the tasks collection in the database.
	ColTasks = "tasks"
)

// Collections represents the list of all collections in the database.
var Collections = []string{
	ColClientGroups,
	ColClients,
	ColSpaces,
	ColBoards,
	ColColumns,
	ColTasks,
}

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

func entityIndexes(extra ...mongo.IndexModel) []mongo.IndexModel {
	return append([]mongo.IndexModel{{
		Keys: bson.D{
			{Key: "profile_id", Value: int32(1)},
			{Key: "id", Value: int32(1)},
		},
		Options: options.Index().SetUnique(true),
	}, {
		Keys: bson.D{
			{Key: "profile_id", Value: int32(1)},
			{Key: "version", Value: int32(1)},
		},
	}}, extra...)
}

var boardIDIndex = mongo.IndexModel{
	Keys: bson.D{
		{Key: "profile_id", Value: int32(1)},
		{Key: "board_id", Value: int32(1)},
	},
}

// Below are names and indexes information of Collections that stores Kanso data.
var collectionInfos = []collectionInfo{
	{
		name: ColClientGroups,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{{Key: "profile_id", Value: int32(1)}},
		}},
	},
	{
		name: ColClients,
		indexes: []mongo.IndexModel{{
			Keys: bson.D{{Key: "client_group_id", Value: int32(1)}},
		}},
	},
	{
		name:    ColBoards,
		indexes: entityIndexes(),
	},
	{
		name: ColColumns,
		indexes: entityIndexes(boardIDIndex, mongo.IndexModel{
			Keys: bson.D{
				{Key: "profile_id", Value: int32(1)},
				{Key: "board_id", Value: int32(1)},
				{Key: "name", Value: int32(1)},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "deleted", Value: false}}),
		}),
	},
	{
		name:    ColTasks,
		indexes: entityIndexes(boardIDIndex),
	},
}

// ensureIndexes creates the collections and their indexes. Collections are
// created upfront because they cannot be created inside a transaction on
// older servers.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	created := make(map[string]bool, len(existing))
	for _, name := range existing {
		created[name] = true
	}

	for _, name := range Collections {
		if created[name] {
			continue
		}
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}

	for _, info := range collectionInfos {
		if _, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes); err != nil {
			return fmt.Errorf("create indexes of %s: %w", info.name, err)
		}
	}

	return nil
}
