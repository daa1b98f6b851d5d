package configs

// Lineage lists every schema fragment contributing to s, most ancestral
// first. Collection walks the base graph breadth-first starting at s and
// reverses the result; a fragment reachable along several paths appears once
// per path.
func Lineage(s *Schema) []*Schema {
	classes := []*Schema{s}
	level := []*Schema{s}

	for len(level) > 0 {
		var next []*Schema
		for _, c := range level {
			next = append(next, c.bases...)
		}
		classes = append(classes, next...)
		level = next
	}

	for i, j := 0, len(classes)-1; i < j; i, j = i+1, j-1 {
		classes[i], classes[j] = classes[j], classes[i]
	}
	return classes
}
