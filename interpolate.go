package tagconfig

import "strings"

const (
	placeholderOpen   = "${"
	placeholderClose  = "}"
	placeholderEscape = "$${"
)

// interpolator expands ${key} references using the session resolver. It
// holds no per-call state; the expansion path and the memo of finished
// references travel through the recursion.
type interpolator struct {
	lookup func(key string) (resolution, bool)
}

// expansions maps a referenced key to its fully expanded value. It lives for
// one expandKey call, so a key referenced many times is expanded once.
type expansions map[string]string

// expandKey expands value, which was resolved for key.
func (in interpolator) expandKey(key, value string) (string, error) {
	return in.expand(value, []string{key}, expansions{})
}

// expand substitutes every placeholder in value, depth first and left to
// right. path holds the keys currently being expanded, outermost first.
func (in interpolator) expand(value string, path []string, memo expansions) (string, error) {
	if !strings.Contains(value, placeholderOpen) {
		return value, nil
	}
	var out strings.Builder
	out.Grow(len(value))
	for i := 0; i < len(value); {
		rest := value[i:]
		if strings.HasPrefix(rest, placeholderEscape) {
			out.WriteString(placeholderOpen)
			i += len(placeholderEscape)
			continue
		}
		if !strings.HasPrefix(rest, placeholderOpen) {
			out.WriteByte(value[i])
			i++
			continue
		}
		end := strings.Index(rest[len(placeholderOpen):], placeholderClose)
		if end < 0 {
			out.WriteString(rest)
			break
		}
		name := strings.TrimSpace(rest[len(placeholderOpen) : len(placeholderOpen)+end])
		consumed := len(placeholderOpen) + end + len(placeholderClose)
		if name == "" {
			out.WriteString(rest[:consumed])
			i += consumed
			continue
		}
		expanded, err := in.reference(name, path, memo)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
		i += consumed
	}
	return out.String(), nil
}

// reference expands the key name. A memoized key cannot reach a cycle, since
// its first expansion would have failed, so the path check only has to run
// before the memo lookup.
func (in interpolator) reference(name string, path []string, memo expansions) (string, error) {
	next := make([]string, len(path)+1)
	copy(next, path)
	next[len(path)] = name
	for _, visited := range path {
		if visited == name {
			return "", &CircularReferenceError{Key: name, Path: next}
		}
	}
	if expanded, ok := memo[name]; ok {
		return expanded, nil
	}
	res, ok := in.lookup(name)
	if !ok {
		return "", &UnresolvedReferenceError{
			Key:       path[len(path)-1],
			Reference: name,
			Path:      next,
		}
	}
	expanded, err := in.expand(res.Value, next, memo)
	if err != nil {
		return "", err
	}
	memo[name] = expanded
	return expanded, nil
}
