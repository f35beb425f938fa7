package cli

import (
	"errors"
	"strings"

	"github.com/jlrickert/renderpath/pkg/config"
	"github.com/jlrickert/renderpath/pkg/store"
)

func renderUserError(err error, deps *Deps) string {
	if err == nil {
		return ""
	}
	switch {
	case store.IsReadOnly(err):
		return err.Error() + " (built-in entries cannot be changed; save a custom copy instead)"
	case config.IsInvalidConfig(err) && !isDebugLogLevel(deps):
		var ice *config.InvalidConfigError
		if errors.As(err, &ice) && ice.Msg != "" && ice.Err == nil {
			return "invalid config: " + ice.Msg
		}
	}
	return err.Error()
}

func isDebugLogLevel(deps *Deps) bool {
	if deps == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(deps.LogLevel), "debug")
}
