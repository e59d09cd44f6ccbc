package main

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	kcg "github.com/foodgram/edge/pkg/configs/gateway"
	"github.com/foodgram/edge/pkg/echoutil"
	"github.com/foodgram/edge/pkg/routes"
)

// BuildServer assembles the gateway: edge middleware first, then one
// echo route per rule in the table.
func BuildServer(conf *kcg.GatewayConfig, table routes.Table, loglevel string) (*echo.Echo, error) {
	e := echo.New()

	echoutil.SetLevel(e, loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	// oversized bodies are rejected here, before any proxying.
	e.Use(middleware.BodyLimit(conf.BodyLimit))
	e.Use(hideServerHeader)

	if err := Mount(e, table); err != nil {
		return nil, err
	}
	return e, nil
}

// the gateway does not advertise what serves it.
func hideServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Before(func() {
			c.Response().Header().Del(echo.HeaderServer)
		})
		return next(c)
	}
}

// Mount registers each rule of the table onto e.
//
// Proxy rules accept every method; static rules only GET and HEAD.
// Echo picks the most specific match, which agrees with
// Table.Resolve's longest-prefix rule for this fixed table.
func Mount(e *echo.Echo, table routes.Table) error {
	for _, rule := range table {
		pattern := strings.TrimSuffix(rule.Prefix, "/") + "/*"

		switch target := rule.Target.(type) {
		case routes.Proxy:
			to := target.To
			h := func(c echo.Context) error {
				dest := *to
				dest.Path = c.Request().URL.Path
				dest.RawQuery = c.Request().URL.RawQuery

				return echoutil.Proxy(&c, dest.String())
			}
			e.Any(pattern, h)

		case routes.Static:
			cfg := middleware.StaticConfig{Root: target.Root}
			if target.Fallback != "" {
				cfg.Index = target.Fallback
				cfg.HTML5 = true
			}
			h := middleware.StaticWithConfig(cfg)(func(c echo.Context) error {
				return echo.ErrNotFound
			})
			e.GET(pattern, h)
			e.HEAD(pattern, h)

		default:
			return fmt.Errorf("unsupported target for %s: %s", rule.Prefix, rule.Target)
		}
	}

	return nil
}
