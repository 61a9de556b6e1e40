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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kanso-team/kanso/api/types"
	"github.com/kanso-team/kanso/client/mutationlog"
	"github.com/kanso-team/kanso/client/store"
)

var (
	inspectStorePath string
	inspectOutput    string
)

// Inspection is a snapshot of a local store.
type Inspection struct {
	ClientGroup types.ClientGroup `json:"clientGroup" yaml:"clientGroup"`
	ClientID    string            `json:"clientID" yaml:"clientID"`
	LastID      uint64            `json:"lastMutationID" yaml:"lastMutationID"`
	LastAckedID uint64            `json:"lastAckedID" yaml:"lastAckedID"`
	Cookie      uint64            `json:"cookie" yaml:"cookie"`
	Entries     []Entry           `json:"entries" yaml:"entries"`
	Pending     []Pending         `json:"pending" yaml:"pending"`
}

// Pending is a mutation not acknowledged by the server yet.
type Pending struct {
	ID        uint64 `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Args      string `json:"args" yaml:"args"`
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
}

// Entry is an entity of a local store.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [options]",
		Short: "Print the entities and the pending mutations of a local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inspectStorePath == "" {
				return errors.New("store is required")
			}

			st, err := store.Open(store.Config{Path: inspectStorePath})
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					cmd.PrintErrln(err)
				}
			}()

			inspection, err := inspect(st)
			if err != nil {
				return err
			}

			return printInspection(cmd.OutOrStdout(), inspectOutput, inspection)
		},
	}
}

// inspect reads a snapshot of the given store.
func inspect(st *store.Store) (*Inspection, error) {
	inspection := &Inspection{}
	err := st.View(func(tx *store.Tx) error {
		group, err := mutationlog.ClientGroup(tx)
		if err != nil {
			return err
		}
		clientID, err := mutationlog.ClientID(tx)
		if err != nil {
			return err
		}
		inspection.ClientGroup = group
		inspection.ClientID = clientID

		log := mutationlog.New(clientID)
		if inspection.LastID, err = log.LastID(tx); err != nil {
			return err
		}
		if inspection.LastAckedID, err = log.LastAckedID(tx); err != nil {
			return err
		}
		if inspection.Cookie, err = log.Cookie(tx); err != nil {
			return err
		}
		pending, err := log.Pending(tx, inspection.LastAckedID)
		if err != nil {
			return err
		}
		for _, m := range pending {
			inspection.Pending = append(inspection.Pending, Pending{
				ID:        m.ID,
				Name:      m.Name,
				Args:      string(m.Args),
				CreatedAt: time.UnixMilli(m.Timestamp).UTC().Format(time.RFC3339),
			})
		}

		for _, prefix := range types.EntityPrefixes {
			if err := tx.Scan(prefix, func(key string, value []byte) error {
				inspection.Entries = append(inspection.Entries, Entry{Key: key, Value: string(value)})
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inspection, nil
}

func printInspection(w io.Writer, output string, inspection *Inspection) error {
	switch output {
	case "":
		summary := newTable()
		summary.AppendHeader(table.Row{"PROFILE", "CLIENT GROUP", "CLIENT", "LAST ID", "ACKED", "COOKIE"})
		summary.AppendRow(table.Row{
			inspection.ClientGroup.ProfileID,
			inspection.ClientGroup.ClientGroupID,
			inspection.ClientID,
			inspection.LastID,
			inspection.LastAckedID,
			inspection.Cookie,
		})

		entries := newTable()
		entries.AppendHeader(table.Row{"KEY", "VALUE"})
		for _, entry := range inspection.Entries {
			entries.AppendRow(table.Row{entry.Key, entry.Value})
		}

		pending := newTable()
		pending.AppendHeader(table.Row{"ID", "NAME", "ARGS", "CREATED AT"})
		for _, m := range inspection.Pending {
			pending.AppendRow(table.Row{m.ID, m.Name, m.Args, m.CreatedAt})
		}

		_, err := fmt.Fprintf(
			w,
			"%s\n\n%s\n\n%s\n",
			summary.Render(),
			entries.Render(),
			pending.Render(),
		)
		return err
	case "json":
		jsonOutput, err := json.MarshalIndent(inspection, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(jsonOutput))
		return err
	case "yaml":
		yamlOutput, err := yaml.Marshal(inspection)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		_, err = fmt.Fprintln(w, strings.TrimRight(string(yamlOutput), "\n"))
		return err
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

func init() {
	cmd := newInspectCmd()
	cmd.Flags().StringVar(
		&inspectStorePath,
		"store",
		"",
		"Directory of the local store",
	)
	cmd.Flags().StringVarP(
		&inspectOutput,
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)
	rootCmd.AddCommand(cmd)
}
