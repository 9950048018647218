package domain

// View is the activated subset of a document handed to the reply step.
type View map[string]any

// Prune projects candidate onto source. A key survives only if both carry
// it, and the value always comes from source, so the result is a subset of
// source whatever candidate contains. Objects recurse; a candidate scalar
// standing in for a source object keeps that object whole. Subtrees left
// empty are dropped.
func Prune(source, candidate map[string]any) map[string]any {
	out := make(map[string]any)
	for key, cv := range candidate {
		sv, ok := source[key]
		if !ok {
			continue
		}

		sub, isObject := sv.(map[string]any)
		if !isObject {
			out[key] = deepCopy(sv)
			continue
		}

		cm, ok := cv.(map[string]any)
		if !ok {
			if len(sub) > 0 {
				out[key] = deepCopyMap(sub)
			}
			continue
		}
		if pruned := Prune(sub, cm); len(pruned) > 0 {
			out[key] = pruned
		}
	}
	return out
}

// retain copies the value at path in source into dst, creating the
// intermediate objects. Missing paths are ignored.
func retain(dst, source map[string]any, path ...string) {
	if len(path) == 0 {
		return
	}
	sv, ok := source[path[0]]
	if !ok {
		return
	}
	if len(path) == 1 {
		dst[path[0]] = deepCopy(sv)
		return
	}

	next, ok := sv.(map[string]any)
	if !ok {
		return
	}
	child, ok := dst[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
	}
	retain(child, next, path[1:]...)
	if len(child) > 0 {
		dst[path[0]] = child
	}
}
