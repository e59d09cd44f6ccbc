package gateway

import (
	"os"

	"gopkg.in/yaml.v3"
)

func LoadGatewayConfig(filepath string) (*GatewayConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*GatewayConfig, error) {
	var out GatewayConfig
	err := yaml.Unmarshal(conf, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
