package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/willibrandon/ChronoGL/pkg/version.Version=..."
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// GetVersionInfo returns a one-line description of the build.
func GetVersionInfo() string {
	return fmt.Sprintf("ChronoGL v%s (built: %s, %s, %s/%s)",
		Version,
		BuildTime,
		runtime.Version(),
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// Dump writes the version line followed by the module dependencies the
// binary was built with, when that information is embedded.
func Dump(w io.Writer) error {
	if _, err := fmt.Fprintln(w, GetVersionInfo()); err != nil {
		return err
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	for _, dep := range info.Deps {
		if _, err := fmt.Fprintf(w, "  %s %s\n", dep.Path, dep.Version); err != nil {
			return err
		}
	}
	return nil
}
