/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"chartdraw/internal/scene"
	"chartdraw/internal/storage"
)

func cmdSave(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	doc, err := scene.Load(args[0])
	if err != nil {
		return err
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	rev, err := st.SaveScene(c.ctx, doc)
	if err != nil {
		return err
	}
	if keep := c.cfg.Storage.KeepRevisions; keep > 0 {
		if _, err := st.PruneRevisions(c.ctx, doc.ID, keep); err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintf(c.stdout, "saved %s revision %d\n", doc.ID, rev)
	return nil
}

func cmdList(c *cli, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	list, err := st.ListScenes(c.ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tREV\tSIZE\tUPDATED\tNAME")
	for _, s := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%gx%g\t%s\t%s\n", s.ID, s.Revision, s.Width, s.Height, s.UpdatedAt.Local().Format(time.DateTime), s.Name)
	}
	return tw.Flush()
}

func cmdHistory(c *cli, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "number of revisions")
	rest, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	revs, err := st.Revisions(c.ctx, rest[0], *limit)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		return fmt.Errorf("scene %s: %w", rest[0], storage.ErrNotFound)
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REV\tSAVED\tBYTES")
	for _, r := range revs {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\n", r.Rev, r.TS.Local().Format(time.DateTime), r.Size)
	}
	return tw.Flush()
}

func cmdRestore(c *cli, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	rev, err := strconv.Atoi(args[1])
	if err != nil || rev <= 0 {
		return fmt.Errorf("%w: revision must be a positive number", errUsage)
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	doc, err := st.LoadRevision(c.ctx, args[0], rev)
	if err != nil {
		return err
	}
	if err := scene.Save(args[2], doc); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "restored %s revision %d to %s\n", doc.ID, rev, args[2])
	return nil
}

func cmdDelete(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	st, err := c.openStore()
	if err != nil {
		return err
	}
	if err := st.DeleteScene(c.ctx, args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(c.stdout, "deleted", args[0])
	return nil
}

func cmdSearch(c *cli, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	remote := fs.Bool("catalog", false, "search the catalog instead of the local store")
	limit := fs.Int("limit", 20, "maximum number of hits")
	rest, err := parse(fs, args, 0, -1)
	if err != nil {
		return err
	}
	q := storage.SearchQuery{Text: strings.Join(rest, " "), Limit: *limit}
	var hits []storage.SearchResult
	switch {
	case *remote && c.cfg.Catalog.DSN != "":
		cat, err := c.openCatalog()
		if err != nil {
			return err
		}
		hits, err = cat.Search(c.ctx, q)
		if err != nil {
			return err
		}
	case *remote:
		cl, err := c.client()
		if err != nil {
			return err
		}
		hits, err = cl.SearchScenes(c.ctx, q.Text, q.Limit)
		if err != nil {
			return err
		}
	default:
		st, err := c.openStore()
		if err != nil {
			return err
		}
		hits, err = st.Search(c.ctx, q)
		if err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	for _, h := range hits {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", h.SceneID, h.Name, h.Snippet)
	}
	return tw.Flush()
}
