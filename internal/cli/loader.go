package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/parser"
	"github.com/roach88/hpl/internal/schema"
)

// LoadSpecification reads and parses an HPL file. Every property is
// sanity checked by the parser.
func LoadSpecification(path string) (*ast.Specification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	spec, err := parser.ParseSpecification(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// loadSpec is LoadSpecification with CLI error reporting: unreadable
// files are command errors, invalid specifications are failures.
func loadSpec(f *OutputFormatter, log logrus.FieldLogger, path string) (*ast.Specification, error) {
	spec, err := LoadSpecification(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("file not found: %s", path))
	case errors.As(err, new(*fs.PathError)):
		return nil, f.Fail(ExitCommandError, ErrCodeReadFailed, err)
	case err != nil:
		return nil, f.Invalid(err)
	}
	log.WithFields(logrus.Fields{"file": path, "properties": len(spec.Properties)}).Debug("parsed")
	return spec, nil
}

// loadSchemas compiles a schema directory, collecting every error.
func loadSchemas(f *OutputFormatter, log logrus.FieldLogger, dir string) (*schema.Schemas, error) {
	sch, errs := schema.Load(dir, schema.CollectAll)
	if len(errs) > 0 {
		for _, e := range errs[1:] {
			log.WithError(e).Warn("schema error")
		}
		if ErrorCode(errs[0]) == schema.ErrNotFound {
			return nil, f.Fail(ExitCommandError, schema.ErrNotFound, errs[0])
		}
		return nil, f.Invalid(errs[0])
	}
	log.WithFields(logrus.Fields{"dir": dir, "files": sch.FileCount, "channels": len(sch.Channels)}).Debug("schemas loaded")
	return sch, nil
}
