// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Program graphctl is a command-line client for graphstored.
//
//     graphctl query 'SELECT * WHERE { ?s ?p ?o } LIMIT 10'
//     graphctl update --file changes.ru
//     graphctl load --graph http://example.org/g data.ttl
//     graphctl get --default --accept text/turtle
//     graphctl delete --graph http://example.org/g
package main

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/urfave/cli"

	"github.com/diffeo/go-graphstore/rdfio"
	"github.com/diffeo/go-graphstore/restclient"
)

// session holds the client shared by all of the subcommands.
type session struct {
	Client *restclient.Client
}

// action connects to the server before running f.
func (s *session) action(f func(*cli.Context) error) func(*cli.Context) error {
	return func(c *cli.Context) (err error) {
		s.Client, err = restclient.New(c.GlobalString("url"))
		if err != nil {
			return err
		}
		return f(c)
	}
}

var targetFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "graph",
		Usage: "IRI of a named graph",
	},
	cli.BoolFlag{
		Name:  "default",
		Usage: "use the default graph",
	},
}

// target reads the --graph and --default flags.
func target(c *cli.Context) (restclient.Target, error) {
	t := restclient.Target{Graph: c.String("graph"), Default: c.Bool("default")}
	if t.Graph != "" && t.Default {
		return t, errors.New("give only one of --graph and --default")
	}
	return t, nil
}

// text returns the single argument, or the contents of --file.
func text(c *cli.Context) (string, error) {
	if file := c.String("file"); file != "" {
		if c.NArg() > 0 {
			return "", errors.New("give either --file or an argument, not both")
		}
		bytes, err := ioutil.ReadFile(file)
		return string(bytes), err
	}
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one argument")
	}
	return c.Args().First(), nil
}

func (s *session) queryCommand() cli.Command {
	return cli.Command{
		Name:      "query",
		Usage:     "run a SPARQL query",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "file", Usage: "read the query from a file"},
			cli.StringFlag{Name: "accept", Usage: "preferred result media type"},
			cli.StringSliceFlag{Name: "default-graph", Usage: "IRI of a graph to merge into the default graph"},
			cli.StringSliceFlag{Name: "named-graph", Usage: "IRI of a visible named graph"},
		},
		Action: s.action(func(c *cli.Context) error {
			query, err := text(c)
			if err != nil {
				return err
			}
			ds := restclient.Dataset{
				Default: c.StringSlice("default-graph"),
				Named:   c.StringSlice("named-graph"),
			}
			resp, err := s.Client.Query(context.Background(), query, c.String("accept"), ds)
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(resp.Body)
			return err
		}),
	}
}

func (s *session) updateCommand() cli.Command {
	return cli.Command{
		Name:      "update",
		Usage:     "run a SPARQL update",
		ArgsUsage: "[update]",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "file", Usage: "read the update from a file"},
			cli.StringSliceFlag{Name: "using-graph", Usage: "IRI of a graph to use as the default graph"},
			cli.StringSliceFlag{Name: "using-named-graph", Usage: "IRI of a visible named graph"},
		},
		Action: s.action(func(c *cli.Context) error {
			update, err := text(c)
			if err != nil {
				return err
			}
			ds := restclient.Dataset{
				Default: c.StringSlice("using-graph"),
				Named:   c.StringSlice("using-named-graph"),
			}
			return s.Client.Update(context.Background(), update, ds)
		}),
	}
}

func (s *session) loadCommand() cli.Command {
	return cli.Command{
		Name:      "load",
		Usage:     "load RDF files into the store",
		ArgsUsage: "file...",
		Flags: append([]cli.Flag{
			cli.StringFlag{Name: "content-type", Usage: "media type of the files, if not known from their names"},
			cli.BoolFlag{Name: "replace", Usage: "replace the target graph instead of adding to it"},
		}, targetFlags...),
		Action: s.action(func(c *cli.Context) error {
			t, err := target(c)
			if err != nil {
				return err
			}
			if c.NArg() == 0 {
				return errors.New("no files to load")
			}
			for _, name := range c.Args() {
				if err := s.load(c, t, name); err != nil {
					return fmt.Errorf("%s: %v", name, err)
				}
			}
			return nil
		}),
	}
}

func (s *session) load(c *cli.Context, t restclient.Target, name string) error {
	contentType := c.String("content-type")
	if contentType == "" {
		format, ok := rdfio.FormatForFilename(name)
		if !ok {
			return errors.New("unknown file type; use --content-type")
		}
		contentType = format.MediaType()
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := context.Background()
	if c.Bool("replace") {
		created, err := s.Client.PutGraph(ctx, t, contentType, f)
		if err == nil && created {
			fmt.Fprintln(c.App.Writer, "created")
		}
		return err
	}
	location, err := s.Client.PostGraph(ctx, t, contentType, f)
	if err == nil && location != "" {
		fmt.Fprintln(c.App.Writer, location)
	}
	return err
}

func (s *session) getCommand() cli.Command {
	return cli.Command{
		Name:  "get",
		Usage: "print a graph, or the whole store",
		Flags: append([]cli.Flag{
			cli.StringFlag{Name: "accept", Usage: "preferred media type"},
		}, targetFlags...),
		Action: s.action(func(c *cli.Context) error {
			t, err := target(c)
			if err != nil {
				return err
			}
			resp, err := s.Client.GetGraph(context.Background(), t, c.String("accept"))
			if err != nil {
				return err
			}
			_, err = c.App.Writer.Write(resp.Body)
			return err
		}),
	}
}

func (s *session) deleteCommand() cli.Command {
	return cli.Command{
		Name:  "delete",
		Usage: "delete a graph, or everything",
		Flags: append([]cli.Flag{
			cli.BoolFlag{Name: "all", Usage: "delete the entire store"},
		}, targetFlags...),
		Action: s.action(func(c *cli.Context) error {
			t, err := target(c)
			if err != nil {
				return err
			}
			whole := t == restclient.Target{}
			if whole != c.Bool("all") {
				return errors.New("give exactly one of --graph, --default, and --all")
			}
			return s.Client.DeleteGraph(context.Background(), t)
		}),
	}
}

func newApp() *cli.App {
	s := &session{}
	app := cli.NewApp()
	app.Name = "graphctl"
	app.Usage = "query and change a graph store"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "url",
			Value:  "http://localhost:5980/",
			Usage:  "base URL of the graph store",
			EnvVar: "GRAPHSTORE_URL",
		},
	}
	app.Commands = []cli.Command{
		s.queryCommand(),
		s.updateCommand(),
		s.loadCommand(),
		s.getCommand(),
		s.deleteCommand(),
	}
	return app
}

func main() {
	newApp().RunAndExitOnError()
}
