/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"chartdraw/internal/backend"
	"chartdraw/internal/config"
	"chartdraw/internal/scene"
	"chartdraw/internal/ui"
)

func cmdPublish(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	doc, _, err := c.loadScene(args[0])
	if err != nil {
		return err
	}
	cat, err := c.openCatalog()
	if err != nil {
		return err
	}
	v, err := cat.Publish(c.ctx, doc, c.cfg.General.Author)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "published %s version %d\n", doc.ID, v)
	return nil
}

// cmdFetch reads from Postgres when a DSN is configured and from the HTTP
// API otherwise.
func cmdFetch(c *cli, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	var (
		doc *scene.Document
		e   backend.Entry
		err error
	)
	if c.cfg.Catalog.DSN != "" {
		cat, cerr := c.openCatalog()
		if cerr != nil {
			return cerr
		}
		doc, e, err = cat.Fetch(c.ctx, args[0])
	} else {
		cl, cerr := c.client()
		if cerr != nil {
			return cerr
		}
		doc, e, err = cl.FetchScene(c.ctx, args[0])
	}
	if err != nil {
		return err
	}
	if err := scene.Save(args[1], doc); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.stdout, "fetched %s version %d to %s\n", e.ID, e.Version, args[1])
	return nil
}

func cmdCatalog(c *cli, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	var (
		list []backend.Entry
		err  error
	)
	if c.cfg.Catalog.DSN != "" {
		cat, cerr := c.openCatalog()
		if cerr != nil {
			return cerr
		}
		list, err = cat.List(c.ctx)
	} else {
		cl, cerr := c.client()
		if cerr != nil {
			return cerr
		}
		list, err = cl.ListScenes(c.ctx)
	}
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tVERSION\tUPDATED\tBY\tNAME")
	for _, e := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", e.ID, e.Version, e.UpdatedAt.Local().Format(time.DateTime), e.PublishedBy, e.Name)
	}
	return tw.Flush()
}

func cmdServe(c *cli, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", c.cfg.Catalog.ServeAddr, "listen address")
	if _, err := parse(fs, args, 0, 0); err != nil {
		return err
	}
	secret, err := config.ServerSecret()
	if err != nil {
		return err
	}
	cat, err := c.openCatalog()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return backend.Serve(ctx, *addr, backend.NewHandler(cat, secret))
}

func cmdView(c *cli, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return ui.Run(args[0], c.cfg.History.UndoConfig())
}
