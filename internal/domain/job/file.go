package job

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// catalogKey is the top-level YAML key holding the posting list.
const catalogKey = "jobs"

// LoadFile reads a YAML catalog of the form:
//
//	jobs:
//	  - id: "42"
//	    title: Backend Engineer
//	    match: 88
//
// and returns a ranked StaticCatalog over it.
func LoadFile(ctx context.Context, path string) (*StaticCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadCatalog, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}

	var jobs []Job
	if err := k.UnmarshalWithConf(catalogKey, &jobs, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}
	if err := Validate(jobs); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}
	return NewStaticCatalog(jobs), nil
}
