package inventory

import (
	"context"

	"github.com/knadh/koanf/parsers/yaml"   // YAML parser for koanf.
	"github.com/knadh/koanf/providers/file" // File provider for koanf.
	"github.com/knadh/koanf/v2"             // Config loading.
	"github.com/pkg/errors"                 // Wrap errors with stacktrace.
)

// FileConfig is the layout of a host list file:
//
//    nodes:
//      - mydatanode1.foo.com
//      - mydatanode2.foo.com
//      - mymasternode1.foo.com
//
type FileConfig struct {
	Nodes []string `koanf:"nodes"`
}

// File reads hosts from a YAML file.
type File struct {
	Path string
}

// Hosts implements Source.
func (f File) Hosts(context.Context) ([]string, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(f.Path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "error loading host list from %s", f.Path)
	}
	var cfg FileConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrapf(err, "error parsing host list from %s", f.Path)
	}
	hosts, err := clean(cfg.Nodes)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", f.Path)
	}
	return hosts, nil
}
