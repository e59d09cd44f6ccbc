package gateway

import (
	"errors"
	"fmt"
	"net/url"
	"path"

	"gopkg.in/yaml.v3"
)

var ErrInvalidBackend = errors.New("gateway: backend is invalid")
var ErrInvalidAssetRoot = errors.New("gateway: asset root is invalid")

// AssetRoots locates the directories the gateway serves without the backend.
//
// All of them are shared volumes: the backend (via preflight) writes,
// the gateway only reads.
type AssetRoots struct {
	// Static is the frontend bundle root (index.html lives here).
	Static string

	// Media is the user-upload root.
	Media string

	// Docs is the API documentation root (redoc.html lives here).
	Docs string
}

type GatewayConfig struct {
	// ServerPort is the port the gateway listens on.
	ServerPort string

	// Backend is the root URL of the application server.
	Backend *url.URL

	// BodyLimit is the request body ceiling, in labstack/gommon/bytes
	// notation ("20M" = 20 MiB).
	BodyLimit string

	Assets AssetRoots
}

func (c *GatewayConfig) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Port      string `yaml:"port"`
		Backend   string `yaml:"backend"`
		BodyLimit string `yaml:"bodyLimit"`
		Assets    struct {
			Static string `yaml:"static"`
			Media  string `yaml:"media"`
			Docs   string `yaml:"docs"`
		} `yaml:"assets"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Port == "" {
		raw.Port = "80"
	}
	if raw.Backend == "" {
		raw.Backend = "http://backend:7000"
	}
	if raw.BodyLimit == "" {
		raw.BodyLimit = "20M"
	}

	b, err := url.Parse(raw.Backend)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBackend, err)
	}
	if !b.IsAbs() {
		return fmt.Errorf("%w: not absolute: %s", ErrInvalidBackend, raw.Backend)
	}
	if b.Hostname() == "" {
		return fmt.Errorf("%w: no hostname: %s", ErrInvalidBackend, raw.Backend)
	}

	for _, root := range []string{raw.Assets.Static, raw.Assets.Media, raw.Assets.Docs} {
		if root == "" {
			continue
		}
		if !path.IsAbs(root) {
			return fmt.Errorf("%w: not absolute: %s", ErrInvalidAssetRoot, root)
		}
		if path.Clean(root) != root {
			return fmt.Errorf("%w: not clean: %s", ErrInvalidAssetRoot, root)
		}
	}

	c.ServerPort = raw.Port
	c.Backend = b
	c.BodyLimit = raw.BodyLimit
	c.Assets = AssetRoots{
		Static: raw.Assets.Static,
		Media:  raw.Assets.Media,
		Docs:   raw.Assets.Docs,
	}
	return nil
}
