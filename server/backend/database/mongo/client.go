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

// Package mongo implements database interfaces using MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/kanso-team/kanso/server/backend/database"
	"github.com/kanso-team/kanso/server/logging"
)

// Client is a client that connects to Mongo DB and reads or saves Kanso data.
// Transactions need a replica set or a sharded cluster.
type Client struct {
	config *Config
	client *mongo.Client
	db     *mongo.Database
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	connectionTimeout, err := conf.ParseConnectionTimeout()
	if err != nil {
		return nil, err
	}
	pingTimeout, err := conf.ParsePingTimeout()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.ConnectionURI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, pingTimeout)
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(conf.KansoDatabase)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, err
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.KansoDatabase)

	return &Client{
		config: conf,
		client: client,
		db:     db,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}
	return nil
}

// Ping checks that the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// RunTx runs fn within a snapshot transaction. The driver retries fn on
// transient transaction errors, so fn must not have side effects outside tx.
func (c *Client) RunTx(ctx context.Context, fn func(tx database.Tx) error) error {
	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(&Tx{sc: sc, db: c.db})
	}, txOpts)
	return err
}

// Tx is a transaction of the Mongo database. Every operation runs in the
// session context of the transaction.
type Tx struct {
	sc mongo.SessionContext
	db *mongo.Database
}

type spaceDoc struct {
	ProfileID string `bson:"_id"`
	Version   uint64 `bson:"version"`
}

// FindClientGroupInfo returns the client group of the given id.
func (t *Tx) FindClientGroupInfo(
	_ context.Context,
	clientGroupID string,
) (*database.ClientGroupInfo, error) {
	var info database.ClientGroupInfo
	err := t.db.Collection(ColClientGroups).FindOne(t.sc, bson.M{"_id": clientGroupID}).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", clientGroupID, database.ErrClientGroupNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find client group of %s: %w", clientGroupID, err)
	}
	return &info, nil
}

// CreateClientGroupInfo creates a client group.
func (t *Tx) CreateClientGroupInfo(_ context.Context, info *database.ClientGroupInfo) error {
	_, err := t.db.Collection(ColClientGroups).InsertOne(t.sc, info)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", info.ID, database.ErrClientGroupAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert client group of %s: %w", info.ID, err)
	}
	return nil
}

// FindClientInfo returns the cursor of the given client.
func (t *Tx) FindClientInfo(_ context.Context, clientID string) (*database.ClientInfo, error) {
	var info database.ClientInfo
	err := t.db.Collection(ColClients).FindOne(t.sc, bson.M{"_id": clientID}).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", clientID, database.ErrClientNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find client of %s: %w", clientID, err)
	}
	return &info, nil
}

// UpsertClientInfo creates or replaces the cursor of a client.
func (t *Tx) UpsertClientInfo(_ context.Context, info *database.ClientInfo) error {
	if _, err := t.db.Collection(ColClients).ReplaceOne(
		t.sc,
		bson.M{"_id": info.ID},
		info,
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("upsert client of %s: %w", info.ID, err)
	}
	return nil
}

// FindSpaceVersion returns the space version of the profile.
func (t *Tx) FindSpaceVersion(_ context.Context, profileID string) (uint64, error) {
	var doc spaceDoc
	err := t.db.Collection(ColSpaces).FindOne(t.sc, bson.M{"_id": profileID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find space of %s: %w", profileID, err)
	}
	return doc.Version, nil
}

// UpdateSpaceVersion sets the space version of the profile.
func (t *Tx) UpdateSpaceVersion(_ context.Context, profileID string, version uint64) error {
	if _, err := t.db.Collection(ColSpaces).ReplaceOne(
		t.sc,
		bson.M{"_id": profileID},
		spaceDoc{ProfileID: profileID, Version: version},
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("update space of %s: %w", profileID, err)
	}
	return nil
}

// FindBoardInfo returns the board of the given id.
func (t *Tx) FindBoardInfo(_ context.Context, profileID, boardID string) (*database.BoardInfo, error) {
	var info database.BoardInfo
	err := t.db.Collection(ColBoards).FindOne(t.sc, entityFilter(profileID, boardID)).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", boardID, database.ErrBoardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find board of %s: %w", boardID, err)
	}
	return &info, nil
}

// FindColumnInfo returns the column of the given id.
func (t *Tx) FindColumnInfo(_ context.Context, profileID, columnID string) (*database.ColumnInfo, error) {
	var info database.ColumnInfo
	err := t.db.Collection(ColColumns).FindOne(t.sc, entityFilter(profileID, columnID)).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", columnID, database.ErrColumnNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find column of %s: %w", columnID, err)
	}
	return &info, nil
}

// FindTaskInfo returns the task of the given id.
func (t *Tx) FindTaskInfo(_ context.Context, profileID, taskID string) (*database.TaskInfo, error) {
	var info database.TaskInfo
	err := t.db.Collection(ColTasks).FindOne(t.sc, entityFilter(profileID, taskID)).Decode(&info)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", taskID, database.ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find task of %s: %w", taskID, err)
	}
	return &info, nil
}

// ListColumnInfos returns the live columns of a board ordered by position.
func (t *Tx) ListColumnInfos(
	_ context.Context,
	profileID, boardID string,
) ([]*database.ColumnInfo, error) {
	var infos []*database.ColumnInfo
	if err := t.findAll(ColColumns, liveBoardFilter(profileID, boardID), byPosition(), &infos); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", boardID, err)
	}
	return infos, nil
}

// ListTaskInfos returns the live tasks of a board ordered by position.
func (t *Tx) ListTaskInfos(
	_ context.Context,
	profileID, boardID string,
) ([]*database.TaskInfo, error) {
	var infos []*database.TaskInfo
	if err := t.findAll(ColTasks, liveBoardFilter(profileID, boardID), byPosition(), &infos); err != nil {
		return nil, fmt.Errorf("list tasks of %s: %w", boardID, err)
	}
	return infos, nil
}

// PutBoardInfo creates or replaces a board.
func (t *Tx) PutBoardInfo(_ context.Context, info *database.BoardInfo) error {
	if err := t.replace(ColBoards, info.ProfileID, info.ID, info); err != nil {
		return fmt.Errorf("put board of %s: %w", info.ID, err)
	}
	return nil
}

// PutColumnInfo creates or replaces a column. A live column of the same
// board must not have the same name.
func (t *Tx) PutColumnInfo(_ context.Context, info *database.ColumnInfo) error {
	err := t.replace(ColColumns, info.ProfileID, info.ID, info)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", info.Name, database.ErrColumnNameAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("put column of %s: %w", info.ID, err)
	}
	return nil
}

// PutTaskInfo creates or replaces a task.
func (t *Tx) PutTaskInfo(_ context.Context, info *database.TaskInfo) error {
	if err := t.replace(ColTasks, info.ProfileID, info.ID, info); err != nil {
		return fmt.Errorf("put task of %s: %w", info.ID, err)
	}
	return nil
}

// FindChangesSince returns the entities of the profile written after the
// given space version.
func (t *Tx) FindChangesSince(
	_ context.Context,
	profileID string,
	version uint64,
) (*database.Changes, error) {
	filter := bson.M{
		"profile_id": profileID,
		"version":    bson.M{"$gt": version},
	}
	opts := options.Find().SetSort(bson.D{{Key: "version", Value: 1}})

	changes := &database.Changes{}
	if err := t.findAll(ColBoards, filter, opts, &changes.Boards); err != nil {
		return nil, fmt.Errorf("find boards of %s: %w", profileID, err)
	}
	if err := t.findAll(ColColumns, filter, opts, &changes.Columns); err != nil {
		return nil, fmt.Errorf("find columns of %s: %w", profileID, err)
	}
	if err := t.findAll(ColTasks, filter, opts, &changes.Tasks); err != nil {
		return nil, fmt.Errorf("find tasks of %s: %w", profileID, err)
	}
	return changes, nil
}

func (t *Tx) findAll(col string, filter any, opts *options.FindOptions, results any) error {
	cursor, err := t.db.Collection(col).Find(t.sc, filter, opts)
	if err != nil {
		return err
	}
	return cursor.All(t.sc, results)
}

func (t *Tx) replace(col, profileID, id string, doc any) error {
	_, err := t.db.Collection(col).ReplaceOne(
		t.sc,
		entityFilter(profileID, id),
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}

func entityFilter(profileID, id string) bson.M {
	return bson.M{"profile_id": profileID, "id": id}
}

func liveBoardFilter(profileID, boardID string) bson.M {
	return bson.M{"profile_id": profileID, "board_id": boardID, "deleted": false}
}

func byPosition() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
}
