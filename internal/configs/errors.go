package configs

import "fmt"

// DeclarationError reports a calculator target, instance value or override
// naming an attribute that no schema in the lineage declares. Resolution
// stops at the first one.
type DeclarationError struct {
	Attr   string
	Source string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("%s refers to attribute %q, which no schema declares", e.Source, e.Attr)
}

// UnresolvableError reports an attribute left without a value after every
// rule of the missing-value pass failed to apply: no value was assigned, no
// option or list append is registered, and the declared type is not a nested
// schema.
type UnresolvableError struct {
	Attr string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("cannot compute a value for attribute %q", e.Attr)
}
