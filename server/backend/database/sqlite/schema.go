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

package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS client_groups (
	id             TEXT PRIMARY KEY,
	profile_id     TEXT NOT NULL,
	schema_version TEXT NOT NULL,
	created_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
	id               TEXT PRIMARY KEY,
	client_group_id  TEXT NOT NULL REFERENCES client_groups(id),
	last_mutation_id INTEGER NOT NULL DEFAULT 0,
	updated_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS spaces (
	profile_id TEXT PRIMARY KEY,
	version    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS boards (
	profile_id TEXT NOT NULL,
	id         TEXT NOT NULL,
	name       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	deleted    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (profile_id, id)
);

CREATE TABLE IF NOT EXISTS board_columns (
	profile_id TEXT NOT NULL,
	id         TEXT NOT NULL,
	board_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	position   REAL NOT NULL,
	version    INTEGER NOT NULL,
	deleted    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (profile_id, id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_columns_live_name
	ON board_columns (profile_id, board_id, name) WHERE deleted = 0;

CREATE TABLE IF NOT EXISTS tasks (
	profile_id TEXT NOT NULL,
	id         TEXT NOT NULL,
	board_id   TEXT NOT NULL,
	column_id  TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL DEFAULT '',
	position   REAL NOT NULL,
	version    INTEGER NOT NULL,
	deleted    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (profile_id, id)
);

CREATE INDEX IF NOT EXISTS idx_columns_board ON board_columns (profile_id, board_id);
CREATE INDEX IF NOT EXISTS idx_tasks_board ON tasks (profile_id, board_id);
CREATE INDEX IF NOT EXISTS idx_boards_version ON boards (profile_id, version);
CREATE INDEX IF NOT EXISTS idx_columns_version ON board_columns (profile_id, version);
CREATE INDEX IF NOT EXISTS idx_tasks_version ON tasks (profile_id, version);
`
