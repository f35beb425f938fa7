package pathchain

import (
	"sort"
	"strings"
)

// DynamicFunc resolves a dynamic tag from the build context.
type DynamicFunc = func(Context) string

func fromContext(key, fallback string) DynamicFunc {
	return func(c Context) string {
		if v, ok := c.Lookup(key); ok {
			return v
		}
		return fallback
	}
}

// dynamicHandlers is keyed by lower-cased tag name.
var dynamicHandlers = map[string]DynamicFunc{
	"shot name":    fromContext(KeyShotName, "shot_name"),
	"project path": fromContext(KeyProjectPath, "/project/path"),
	"user":         fromContext(KeyUserName, "user"),
	"[read_name]":  fromContext(KeyReadName, "read_name"),
	"sequence":     fromContext(KeySequenceName, "sequence"),
	"scene":        fromContext(KeyScene, "scene"),
	"department":   fromContext(KeyDepartment, "comp"),
	"task":         fromContext(KeyTaskName, "task"),
}

// DynamicNames lists the tag names with a built-in resolver, sorted.
func DynamicNames() []string {
	out := make([]string, 0, len(dynamicHandlers))
	for k := range dynamicHandlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func resolveDynamic(t Tag, c Context) string {
	if fn, ok := dynamicHandlers[strings.ToLower(strings.TrimSpace(t.Name))]; ok {
		return fn(c)
	}
	if key, ok := bracketed(t.Default); ok {
		if v, ok := c.Lookup(key); ok {
			return v
		}
	}
	if t.Default != "" {
		return t.Default
	}
	return t.Name
}

// bracketed unwraps "[key]".
func bracketed(s string) (string, bool) {
	if len(s) < 3 || s[0] != '[' || s[len(s)-1] != ']' {
		return "", false
	}
	return s[1 : len(s)-1], true
}
