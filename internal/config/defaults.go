package config

import (
	_ "embed"
)

//go:embed defaults/livepoll.yaml
var defaultServerYAML []byte
