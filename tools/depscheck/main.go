package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// rule forbids packages matching scope from importing anything under the
// listed prefixes.
type rule struct {
	scope     string
	forbidden []string
}

// The game core must stay transport agnostic; motion and sim sit below it.
var rules = []rule{
	{scope: "./internal/game/...", forbidden: []string{
		"shakeout/server/internal/net",
		"shakeout/server/internal/app",
		"shakeout/server/internal/config",
	}},
	{scope: "./internal/motion/...", forbidden: []string{
		"shakeout/server/internal/game",
		"shakeout/server/internal/sim",
	}},
	{scope: "./internal/sim/...", forbidden: []string{
		"shakeout/server/internal/game",
	}},
}

func main() {
	var violations []string
	for _, r := range rules {
		pkgs, err := listPackages(r.scope)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depscheck: %v\n", err)
			os.Exit(1)
		}
		for _, pkg := range pkgs {
			for _, imp := range pkg.Imports {
				for _, prefix := range r.forbidden {
					if imp == prefix || strings.HasPrefix(imp, prefix+"/") {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func listPackages(pattern string) ([]packageInfo, error) {
	cmd := exec.Command("go", "list", "-json", pattern)
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Stderr.Write(exitErr.Stderr)
		}
		return nil, fmt.Errorf("failed to list %s: %w", pattern, err)
	}

	var pkgs []packageInfo
	decoder := json.NewDecoder(bytes.NewReader(output))
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				return pkgs, nil
			}
			return nil, fmt.Errorf("failed to decode package info: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
}
