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

package memory

import "github.com/hashicorp/go-memdb"

var (
	tblClientGroups = "client_groups"
	tblClients      = "clients"
	tblSpaces       = "spaces"
	tblBoards       = "boards"
	tblColumns      = "columns"
	tblTasks        = "tasks"
)

// profileEntityIndexes returns the indexes shared by entity tables. Entity
// ids are unique within a profile.
func profileEntityIndexes() map[string]*memdb.IndexSchema {
	return map[string]*memdb.IndexSchema{
		"id": {
			Name:   "id",
			Unique: true,
			Indexer: &memdb.CompoundIndex{
				Indexes: []memdb.Indexer{
					&memdb.StringFieldIndex{Field: "ProfileID"},
					&memdb.StringFieldIndex{Field: "ID"},
				},
			},
		},
		"profile_id": {
			Name:    "profile_id",
			Indexer: &memdb.StringFieldIndex{Field: "ProfileID"},
		},
	}
}

func boardScopedIndexes() map[string]*memdb.IndexSchema {
	indexes := profileEntityIndexes()
	indexes["profile_id_board_id"] = &memdb.IndexSchema{
		Name: "profile_id_board_id",
		Indexer: &memdb.CompoundIndex{
			Indexes: []memdb.Indexer{
				&memdb.StringFieldIndex{Field: "ProfileID"},
				&memdb.StringFieldIndex{Field: "BoardID"},
			},
		},
	}
	return indexes
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblClientGroups: {
			Name: tblClientGroups,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"profile_id": {
					Name:    "profile_id",
					Indexer: &memdb.StringFieldIndex{Field: "ProfileID"},
				},
			},
		},
		tblClients: {
			Name: tblClients,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"client_group_id": {
					Name:    "client_group_id",
					Indexer: &memdb.StringFieldIndex{Field: "ClientGroupID"},
				},
			},
		},
		tblSpaces: {
			Name: tblSpaces,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ProfileID"},
				},
			},
		},
		tblBoards: {
			Name:    tblBoards,
			Indexes: profileEntityIndexes(),
		},
		tblColumns: {
			Name:    tblColumns,
			Indexes: boardScopedIndexes(),
		},
		tblTasks: {
			Name:    tblTasks,
			Indexes: boardScopedIndexes(),
		},
	},
}
