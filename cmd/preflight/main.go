package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/youta-t/flarc"

	"github.com/foodgram/edge/pkg/bootstrap"
	kdb "github.com/foodgram/edge/pkg/db"
	"github.com/foodgram/edge/pkg/db/postgres"
	"github.com/foodgram/edge/pkg/retry"
	"github.com/foodgram/edge/pkg/utils/try"
)

type Flag struct {
	Host     string `flag:"host" help:"The host of the database."`
	Port     int    `flag:"port" help:"The port of the database."`
	User     string `flag:"user" help:"The user of the database."`
	Password string `flag:"pass" help:"The password of the database."`
	Database string `flag:"database" help:"The name of the database."`

	Schema     string `flag:"schema" help:"The path to the schema repository directory."`
	Data       string `flag:"data" help:"The directory holding tags.csv and ingredients.csv."`
	StaticSrc  string `flag:"static-src" help:"The static asset tree to publish."`
	StaticDest string `flag:"static-dest" help:"Where the gateway serves static assets from."`
	DocsSrc    string `flag:"docs-src" help:"The API docs tree to publish."`
	DocsDest   string `flag:"docs-dest" help:"Where the gateway serves API docs from."`

	SkipWait bool `flag:"skip-wait" help:"Do not wait for the database to accept connections."`
	SkipSeed bool `flag:"skip-seed" help:"Do not load reference data."`
}

const ARG_COMMAND = "COMMAND"

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt, os.Kill,
	)
	defer cancel()

	port := 5432
	if sp := os.Getenv("DB_PORT"); sp != "" {
		p, err := strconv.Atoi(sp)
		if err == nil {
			port = p
		}
	}

	cmd := try.To(flarc.NewCommand(
		"bring the application container to readiness, then hand off",
		Flag{
			Host:     os.Getenv("DB_HOST"),
			Port:     port,
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			Database: os.Getenv("POSTGRES_DB"),

			Schema: "/schema",
			Data:   "/data",
		},
		flarc.Args{
			{
				Name: ARG_COMMAND, Help: "The application server command line to exec into.",
				Required: false, Repeatable: true,
			},
		},
		func(ctx context.Context, c flarc.Commandline[Flag], a []any) error {
			flags := c.Flags()

			dburi := fmt.Sprintf(
				"postgres://%s:%s@%s:%d/%s",
				flags.User, flags.Password, flags.Host, flags.Port, flags.Database,
			)

			// The pool cannot be opened before WaitTCP lets us through,
			// so steps receive a lazy, memoizing constructor.
			var database kdb.EdgeDatabase
			db := func() (kdb.EdgeDatabase, error) {
				if database != nil {
					return database, nil
				}
				d, err := postgres.New(
					ctx, dburi, postgres.WithSchemaRepository(flags.Schema),
				)
				if err != nil {
					return nil, err
				}
				database = d
				return database, nil
			}
			defer func() {
				if database != nil {
					database.Close()
				}
			}()

			steps := []bootstrap.Step{}
			if !flags.SkipWait {
				addr := net.JoinHostPort(flags.Host, strconv.Itoa(flags.Port))
				steps = append(steps, bootstrap.WaitTCP(
					addr,
					retry.ExponentialBackoff(1*time.Second, 2, 10*time.Second),
					logger,
				))
			}

			steps = append(steps, bootstrap.Migrate(
				func() (kdb.SchemaInterface, error) {
					d, err := db()
					if err != nil {
						return nil, err
					}
					return d.Schema(), nil
				},
			))

			pairs := []bootstrap.CopyPair{}
			if flags.StaticSrc != "" && flags.StaticDest != "" {
				pairs = append(pairs, bootstrap.CopyPair{
					Src: flags.StaticSrc, Dest: flags.StaticDest,
				})
			}
			if flags.DocsSrc != "" && flags.DocsDest != "" {
				pairs = append(pairs, bootstrap.CopyPair{
					Src: flags.DocsSrc, Dest: flags.DocsDest,
				})
			}
			steps = append(steps, bootstrap.CollectStatic(pairs...))

			if !flags.SkipSeed {
				steps = append(steps, bootstrap.Seed(db, flags.Data, logger))
			}

			seq := bootstrap.New(logger, steps...)
			if err := seq.Run(ctx); err != nil {
				return err
			}
			logger.Printf("bootstrap: %s", seq.State())

			command := c.Args()[ARG_COMMAND]
			if len(command) == 0 {
				return nil
			}

			// exec replaces this process, so release the pool first.
			if database != nil {
				database.Close()
				database = nil
			}

			bin, err := exec.LookPath(command[0])
			if err != nil {
				return err
			}
			logger.Printf("handing off to %s", bin)
			return syscall.Exec(bin, command, os.Environ())
		},
	)).OrFatal(logger)

	os.Exit(flarc.Run(ctx, cmd))
}
