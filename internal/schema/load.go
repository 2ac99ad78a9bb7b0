package schema

import (
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Load compiles every .cue file in dir as one CUE instance.
func Load(dir string, mode Mode) (*Schemas, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{errorf(ErrNotFound, token.NoPos, "schema directory not accessible: %v", err)}
	}
	if !info.IsDir() {
		return nil, []error{errorf(ErrNotFound, token.NoPos, "not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{errorf(ErrNotFound, token.NoPos, "scanning %s: %v", dir, err)}
	}
	if len(files) == 0 {
		return nil, []error{errorf(ErrNotFound, token.NoPos, "no CUE files found in %s", dir)}
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{errorf(ErrLoadFailed, token.NoPos, "no CUE instances loaded")}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fromCUE(ErrLoadFailed, inst.Err)}
	}

	value := cuecontext.New().BuildInstance(inst)
	out, errs := Compile(value, mode)
	if out != nil {
		out.FileCount = len(files)
	}
	return out, errs
}

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}
