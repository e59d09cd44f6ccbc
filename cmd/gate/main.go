package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	kcg "github.com/foodgram/edge/pkg/configs/gateway"
	"github.com/foodgram/edge/pkg/filewatch"
	"github.com/foodgram/edge/pkg/routes"
)

func main() {

	configPath := flag.String("config-path", os.Getenv("GATEWAY_CONFIG"), "gateway config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	conf, err := kcg.LoadGatewayConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}

	table := routes.DefaultTable(conf)

	e, err := BuildServer(conf, table, *loglevel)
	if err != nil {
		log.Fatalf("can not build server: %s", err)
	}

	log.Println("routing table:")
	for _, r := range table {
		log.Printf("- %s => %s", r.Prefix, r.Target)
	}

	// the config file is fixed for the process lifetime: when it
	// changes, quit so the orchestrator restarts us with the new one.
	{
		wctx, wcancel, err := filewatch.UntilModifyContext(ctx, *configPath)
		if err != nil {
			log.Fatalf("can not watch configuration: %s", err)
		}
		defer wcancel()
		ctx = wctx
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		cert, key := *pcert, *pkey
		var err error
		if cert != "" && key != "" {
			err = e.StartTLS(":"+conf.ServerPort, cert, key)
		} else {
			err = e.Start(":" + conf.ServerPort)
		}
		if err != nil && err != http.ErrServerClosed {
			ch <- err
		}
	}()

	exit := 0
	select {
	case <-ctx.Done():
		if err := ctx.Err(); err != nil {
			e.Logger.Infof("context has been done: %s, cause: %s", err, context.Cause(ctx))
		}
	case err := <-ch:
		if err != nil {
			e.Logger.Error("server stops with error:", err)
			exit = 1
		}
	}

	{
		e.Logger.Info("shutting down...")
		qctx, qcancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer qcancel()

		if err := e.Shutdown(qctx); err != nil {
			e.Logger.Fatalf("shutdown with error. %+v", err)
		}
		os.Exit(exit)
	}
}
