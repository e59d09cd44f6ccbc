package routes

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	kcg "github.com/foodgram/edge/pkg/configs/gateway"
	kstrings "github.com/foodgram/edge/pkg/utils/strings"
)

var ErrNoRoute = errors.New("routes: no route matches")

// Target is where a matched request goes.
//
// It is a closed set: Proxy (hand the request to the application server)
// or Static (serve a file from a local root). Dispatch code switches on
// the concrete type, so adding a variant breaks every switch on purpose.
type Target interface {
	fmt.Stringer
	target()
}

// Proxy forwards the request to the application server at To,
// keeping the inbound Host header.
type Proxy struct {
	To *url.URL
}

func (Proxy) target() {}

func (p Proxy) String() string {
	return fmt.Sprintf("proxy(%s)", p.To)
}

// Static serves files under Root.
//
// When the requested file is absent and Fallback is not empty,
// the file named Fallback (relative to Root) is served instead.
// With empty Fallback, absence is a plain 404.
type Static struct {
	Root     string
	Fallback string
}

func (Static) target() {}

func (s Static) String() string {
	if s.Fallback == "" {
		return fmt.Sprintf("static(%s)", s.Root)
	}
	return fmt.Sprintf("static(%s, fallback=%s)", s.Root, s.Fallback)
}

// Rule binds a path prefix to a Target.
//
// Prefix must be "/" or an absolute path ending with "/".
type Rule struct {
	Prefix string
	Target Target
}

// Table is the fixed routing policy of the gateway.
// It is built once at configuration load and never mutated.
type Table []Rule

// Resolve picks the rule for the given request path:
// among rules whose Prefix is a prefix of path, the longest wins.
//
// A table containing the "/" rule resolves every path, so with the
// default table the (Rule, error) pair never carries ErrNoRoute.
func (t Table) Resolve(reqpath string) (Rule, error) {
	reqpath = kstrings.SupplyPrefix("/", reqpath)

	best := Rule{}
	found := false
	for _, r := range t {
		if !matches(reqpath, r.Prefix) {
			continue
		}
		if !found || len(best.Prefix) < len(r.Prefix) {
			best = r
			found = true
		}
	}

	if !found {
		return Rule{}, fmt.Errorf("%w: %s", ErrNoRoute, reqpath)
	}
	return best, nil
}

// matches is prefix-literal, like an nginx `location /api/`:
// "/api" (no trailing slash) does not match the "/api/" rule and
// falls through to the catch-all.
func matches(reqpath string, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return strings.HasPrefix(reqpath, prefix)
}

// DefaultTable is the routing policy served in front of foodgram:
// media and docs from local asset stores, admin and api proxied to the
// application server, and everything else falling back to the SPA bundle.
func DefaultTable(conf *kcg.GatewayConfig) Table {
	return Table{
		{Prefix: "/media/", Target: Static{Root: conf.Assets.Media}},
		{Prefix: "/admin/", Target: Proxy{To: conf.Backend}},
		{Prefix: "/api/docs/", Target: Static{Root: conf.Assets.Docs, Fallback: "redoc.html"}},
		{Prefix: "/api/", Target: Proxy{To: conf.Backend}},
		{Prefix: "/", Target: Static{Root: conf.Assets.Static, Fallback: "index.html"}},
	}
}
